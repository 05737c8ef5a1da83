// Package domain models coastal environmental telemetry and the threat
// records derived from it.
//
// # Data source
//
// Upstream collector services poll public weather, tide, ocean, and
// water-quality providers for each monitored coastal location and publish one
// flat JSON reading per poll to the Kafka source topic. Providers report
// disjoint field sets (a tide gauge knows nothing about wind), so every
// metric on a Reading is optional and the engine treats an absent field as
// "not reported", never as zero.
//
// # Units
//
//	temperature       °C
//	humidity          percent relative
//	wind_speed        m/s
//	wind_direction    degrees true
//	pressure          hPa (falling pressure is the dangerous direction)
//	tide_height       metres above datum
//	wave_height       metres, significant wave height
//	ph                pH units
//	dissolved_oxygen  mg/L
//
// # Derived records
//
// A Detection is the ephemeral output of a single analysis stage (threshold,
// anomaly, trend, seasonal adjustment). An Alert is the durable record the
// lifecycle manager folds detections into, deduplicated so at most one active
// alert exists per (kind, location). A RiskAssessment is the flood
// classifier's output for one feature vector; its band comes from fixed
// probability cut points (0.8 / 0.6 / 0.4 / 0.2) so presentation layers and
// tests agree exactly.
package domain
