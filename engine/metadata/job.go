package metadata

import "context"

/** Definition for jobs. The context is cancelled when the job's handle is. */
type JobStart func(ctx context.Context) error

/** Definition for successful completion of a job. */
type JobOnComplete func()

/** Definition for a failed job. */
type JobOnFailure func(err error)

/** @brief Describes a type of job */
type JobType int

const (
	/** @brief A general job that does not have any specific thread requirements. */
	JOB_TYPE_GENERAL JobType = 0x02
	/**
	 * @brief A resource loading job. Imports, exports and editor scans run as this type
	 * and are never run concurrently with each other.
	 */
	JOB_TYPE_RESOURCE_LOAD JobType = 0x04
)

/**
 * @brief Describes a job to be run.
 */
type JobTask struct {
	/** @brief Name used in logs and traces. */
	Name string
	/** @brief The type of job. */
	JobType JobType
	/** @brief Invoked on a worker when the job starts. Required. */
	OnStart JobStart
	/** @brief Invoked after OnStart returned nil. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked after OnStart failed or the job was cancelled before it started. Optional. */
	OnFailure JobOnFailure
}
