// Package mlflow is a small client for the MLflow tracking server REST API
// (version 2.0): registered models, model versions, stage transitions and
// runs. It speaks to self-hosted servers and to hosted endpoints such as
// https://dagshub.com/<owner>/<repo>.mlflow using HTTP basic auth.
package mlflow
