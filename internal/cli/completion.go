package cli

import (
	"github.com/posener/complete"
	"github.com/willabides/kongplete"

	"github.com/semmy-space/dataprotect/internal/config"
	"github.com/semmy-space/dataprotect/internal/prefs"
	"github.com/semmy-space/dataprotect/internal/vault"
)

// Predictors returns the kongplete predictors referenced by predictor tags
func Predictors() []kongplete.Option {
	return []kongplete.Option{
		kongplete.WithPredictor("secret", complete.PredictFunc(predictSecretNames)),
		kongplete.WithPredictor("config_key", complete.PredictSet(config.Keys()...)),
	}
}

// predictSecretNames lists stored secret names. It reads only the store;
// names are not secret, so completion never needs the keystore.
func predictSecretNames(complete.Args) []string {
	cfg, err := config.Load()
	if err != nil {
		return nil
	}
	kv, err := prefs.Open(cfg.StoreKind(), config.DataDir())
	if err != nil {
		return nil
	}
	if c, ok := kv.(interface{ Close() error }); ok {
		defer c.Close()
	}
	return secretNames(kv)
}

func secretNames(kv prefs.Store) []string {
	names, err := vault.NamesFrom(kv)
	if err != nil {
		return nil
	}
	return names
}
