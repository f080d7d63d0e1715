// Package modelinfo loads the JSON document an experiment writes after
// training (reports/experiment_info.json). Only model_path is consumed; every
// other field is carried through unread. Schema validation is available for
// the validate and doctor commands but is not part of the registration path.
package modelinfo
