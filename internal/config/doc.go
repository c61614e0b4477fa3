// Package config loads shop-api settings with viper. Defaults are overlaid
// by an optional config.yaml and then by SHOP_* environment variables, for
// example SHOP_DATABASE_DRIVER or SHOP_SALE_MAX_RETRIES. Load rejects a
// result that fails its validate tags.
package config
