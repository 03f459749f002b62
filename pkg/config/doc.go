// Package config loads the moosedocs.yml project configuration.
//
// # Overview
//
// A project directory holds a moosedocs.yml next to its content directory.
// Missing keys keep the values of DefaultConfig, and MOOSEDOCS_* environment
// variables override the file. Relative paths are resolved against the
// directory containing the file.
//
// # Configuration Structure
//
//	site_dir: site
//	content_dir: content
//	template: templates/website.html
//	template_args:
//	  title: MOOSE
//	navigation: navigation.yml
//	executable: ../modules/combined/combined-opt
//	executable_timeout: 2m
//	hide:
//	  - /AuxKernels
//	locations:
//	  - framework:
//	      paths: [/]
//	  - name: phase_field
//	    paths: [/Adaptivity/Markers]
//	    hide: [/Adaptivity/Markers/ErrorFractionMarker]
//	threads: 8
//	cache:
//	  fragment_size: 1024
//	  redis_url: redis://localhost:6379/0
//	s3:
//	  bucket: docs-site
//	  prefix: latest
//
// Environment overrides:
//
//	MOOSEDOCS_SITE_DIR="/srv/site"
//	MOOSEDOCS_EXECUTABLE="/opt/moose/bin/combined-opt"
//	MOOSEDOCS_THREADS="4"
//	MOOSEDOCS_REDIS_URL="redis://cache:6379/0"
//	MOOSEDOCS_S3_BUCKET="docs-site"
//	MOOSEDOCS_LOG_LEVEL="debug"  # debug, info, warn, error
//	MOOSEDOCS_OTEL_ENABLED="true"
//	MOOSEDOCS_OTEL_SAMPLE_RATIO="0.1"
//
// # Usage Example
//
//	cfg, err := config.LoadFromDir(".")
//	if err != nil {
//		log.Fatal(err)
//	}
//	regs, err := cfg.Registries(tree)
package config
