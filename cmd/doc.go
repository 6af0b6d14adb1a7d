// Package cmd defines the CLI of the index-inspector executable.
//
// Run overview:
//   - Configuration: Viper reads the optional --config file and INSPECTOR_* environment variables
//     (GOOGLE_CREDENTIALS and DRY_RUN are honoured for existing scheduler jobs), then validates them.
//   - Startup: the service account key is loaded, the first Search Console property matching
//     site.domain with inspection access is selected, and the URL set is built from urls.static_file
//     plus site.dynamic_days of generated answer pages per game. Any failure here exits 1.
//   - Inspection: URLs are inspected one at a time with inspection.delay between calls, grouped in
//     batches of inspection.batch_size. Failed calls become ERROR rows; they never stop the run.
//   - Output: each batch is appended to a spreadsheet named <slug>-<ddmon>-<yyyy>. If the sheet cannot
//     be created, or any append fails, every row of the run goes to a local CSV or parquet file in
//     output.dir instead, optionally mirrored to storage.gcs_bucket. The sheet is not retried.
//   - Reporting: a run summary is logged, published to Pub/Sub when pubsub.* is set, and written as
//     Prometheus metrics to metrics.textfile when set.
//
// SIGINT and SIGTERM stop the run before the next URL; rows gathered so far are still written and
// the process exits 1.
package cmd
