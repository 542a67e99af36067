// Package config loads stflow configuration.
//
// # Configuration Sources
//
// Values are applied in this order, later sources overriding earlier ones:
//
//	1. Default()
//	2. A YAML file: the path passed to Load, else $STFLOW_CONFIG, else
//	   config.yaml or configs/config.yaml in the working directory
//	3. Environment variables prefixed with STFLOW_
//
// The result is validated with go-playground/validator struct tags and the
// dataset window rules before it is returned.
//
// # Environment Variables
//
// Variable names follow the section and field names:
//
//	STFLOW_DATASET_ROOT=/data/deepstn
//	STFLOW_DATASET_LEN_TREND=0
//	STFLOW_DATASET_MODE=lead_time
//	STFLOW_EVALUATION_BATCH_SIZE=64
//	STFLOW_SERVER_PORT=9090
//	STFLOW_SERVER_RATE_LIMIT_RPS=20
//	STFLOW_LOGGING_LEVEL=debug
//	STFLOW_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Example File
//
//	dataset:
//	  root: data/deepstn
//	  len_closeness: 3
//	  len_period: 4
//	  len_trend: 0
//	  mode: sequential
//	  history_length: 6
//	  prediction_length: 1
//	server:
//	  port: 8080
//	  read_timeout: 15s
//	logging:
//	  level: info
//	  output: both
//	  file_path: logs/stflow.log
package config
