// Package config provides configuration management for jsoncache.
//
// It utilizes Viper for loading configuration from environment variables, an
// optional .env file and an optional YAML file. Defaults come from the `default`
// struct tags of each section.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: dashboard host, port and toggles
//   - Log: logging level and format
//   - Cache: sources, key depth, namespace prefixes and size ceiling
//   - Watch: change detection debounce and retry policy
//   - Storage: S3/MinIO connection for s3:// sources
//
// # Sources
//
// Sources are an ordered list and are normally declared in the YAML file:
//
//	cache:
//	  namespace_prefixes: [b17]
//	  sources:
//	    - name: queries
//	      path: ./data/queries.json
//	      primary: true
//	      watch: true
//	    - name: remote
//	      path: s3://configs/queries.json
//
// The file is the --config flag, else ./jsoncache.yaml, else
// $XDG_CONFIG_HOME/jsoncache/config.yaml. Without a file, CACHE_SOURCES declares
// sources as name=path pairs separated by commas; CACHE_WATCH=true watches them all.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
