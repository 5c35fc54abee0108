package rename

// Outcome is the single result of one Execute call.
type Outcome int

const (
	outcomeUnset Outcome = iota
	Renamed
	SkippedAlreadyCorrect
	SkippedDryRun
	SkippedInvalidInput
	SkippedSameLogicalFile
	FailedTargetConflict
	FailedPermission
	FailedPathNotFound
	FailedIO
	FailedUnexpected
	// VerifyFailed means the move call returned without error but the target
	// was not there afterwards.
	VerifyFailed
)

// Outcomes lists every outcome Execute can report.
var Outcomes = []Outcome{
	Renamed,
	SkippedAlreadyCorrect,
	SkippedDryRun,
	SkippedInvalidInput,
	SkippedSameLogicalFile,
	FailedTargetConflict,
	FailedPermission,
	FailedPathNotFound,
	FailedIO,
	FailedUnexpected,
	VerifyFailed,
}

func (o Outcome) String() string {
	switch o {
	case Renamed:
		return "renamed"
	case SkippedAlreadyCorrect:
		return "skipped_already_correct"
	case SkippedDryRun:
		return "skipped_dry_run"
	case SkippedInvalidInput:
		return "skipped_invalid_input"
	case SkippedSameLogicalFile:
		return "skipped_same_logical_file"
	case FailedTargetConflict:
		return "failed_target_conflict"
	case FailedPermission:
		return "failed_permission"
	case FailedPathNotFound:
		return "failed_path_not_found"
	case FailedIO:
		return "failed_io"
	case FailedUnexpected:
		return "failed_unexpected"
	case VerifyFailed:
		return "verify_failed"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of Outcome.String. Unknown strings return false.
func ParseOutcome(s string) (Outcome, bool) {
	for _, o := range Outcomes {
		if o.String() == s {
			return o, true
		}
	}
	return outcomeUnset, false
}

// Skipped reports whether the outcome left the filesystem untouched on purpose.
func (o Outcome) Skipped() bool {
	switch o {
	case SkippedAlreadyCorrect, SkippedDryRun, SkippedInvalidInput, SkippedSameLogicalFile:
		return true
	}
	return false
}

// Failed reports whether the outcome is an error the caller should surface.
func (o Outcome) Failed() bool {
	switch o {
	case FailedTargetConflict, FailedPermission, FailedPathNotFound, FailedIO, FailedUnexpected, VerifyFailed:
		return true
	}
	return false
}

// NameIsCorrect reports whether the item now carries its desired name,
// either because it was renamed or because it already did.
func (o Outcome) NameIsCorrect() bool {
	return o == Renamed || o == SkippedAlreadyCorrect || o == SkippedSameLogicalFile
}

// Retryable reports whether retrying later, without changing the input,
// might succeed.
func (o Outcome) Retryable() bool {
	return o == FailedPermission || o == FailedIO
}
