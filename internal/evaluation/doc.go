// Package evaluation scores forecasters against the periodical samples of a
// dataset.
//
// The pipeline mirrors a model training driver without the model: the
// sample index range is split contiguously into train, validation and test
// parts, each part is visited in a seeded random order by a Loader that
// fetches batches with bounded concurrency, and every Predictor is scored
// with MSE, MAE and RMSE. The predictor with the lowest validation loss is
// marked best, and test metrics over several iterations are aggregated into
// a Report that can be saved as CSV or XLSX.
package evaluation
