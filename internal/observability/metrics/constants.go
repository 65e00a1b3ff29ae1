// Package metrics provides constants used across metric definitions.
package metrics

// Operation label values
const (
	// OpLoadCoverage covers reading and filtering a raw file list.
	OpLoadCoverage = "load_coverage"
	// OpLoadInference covers reading one inference CSV.
	OpLoadInference = "load_inference"
	// OpBuildTable covers computing one eco-function table.
	OpBuildTable = "build_table"
	// OpWriteTable covers writing a result table.
	OpWriteTable = "write_table"
	// OpKernel covers a linear kernel density estimate.
	OpKernel = "kernel"
	// OpOverlap covers one treatment pair overlap estimate.
	OpOverlap = "overlap"
	// OpBootstrap covers a full bootstrap run for one pair.
	OpBootstrap = "bootstrap"
	// OpWatson covers Watson's two-sample test.
	OpWatson = "watson"
	// OpClip covers cutting one detection clip.
	OpClip = "clip"
	// OpGLM covers fitting one regression model.
	OpGLM = "glm"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~1s range).
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount10 defines 10 exponential buckets.
	BucketCount10 = 10
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
)
