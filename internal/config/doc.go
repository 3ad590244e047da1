// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

/*
Package config loads CloudSIEM configuration with koanf.

Sources are layered, later ones overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: $CONFIG_PATH, ./config.yaml, or /etc/cloudsiem/config.yaml
 3. Environment variables, through an explicit mapping table

Example config.yaml:

	server:
	  port: 8080
	store:
	  backend: badger
	  path: /data/cloudsiem
	notify:
	  metric_namespace: CloudSIEM
	  nats:
	    enabled: true
	    embedded: true
	  webhook:
	    url: https://hooks.example.com/siem
	security:
	  jwt_secret: ${JWT_SECRET}
	logging:
	  level: info

Detection thresholds and windows are fixed and deliberately absent here.
*/
package config
