// Package config loads and validates qtics configuration files.
//
// Configuration is YAML with environment variable overrides, loaded once at
// startup:
//
//	cfg, err := config.Load("config.yaml")
//
// A configuration file describes the experiment identity, the data store,
// optional telemetry sinks (MQTT, InfluxDB), logging, and the instruments to
// instantiate by registered type name:
//
//	experiment:
//	  name: twpa_gain
//	data:
//	  path: ./data/twpa.db
//	instruments:
//	  - name: vna
//	    type: n9916a.vna
//	    address: 192.168.40.10
//	    settings:
//	      f_min: 1.0e9
//	      f_max: 9.0e9
//	    defaults:
//	      power: -30.0
//
// Instrument settings and defaults keep their document order (see Settings),
// because the order parameters reach hardware is part of an acquisition
// recipe.
package config
