package fetch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sariola/notion2prompt/internal/id"
	"github.com/sariola/notion2prompt/internal/notion"
)

// DBFailureKind is the domain vocabulary for why a database fetch failed.
// Not an error type: a classification that drives the fallback behaviour
// and the renderer's output for the host block.
type DBFailureKind int

const (
	// FailureLinked means the block references a linked database, which
	// the retrieve-database endpoint cannot resolve.
	FailureLinked DBFailureKind = iota
	// FailurePermission means the integration lacks access.
	FailurePermission
	// FailureNotFound means the database does not exist.
	FailureNotFound
	// FailureOther covers everything else.
	FailureOther
)

// DBFetchFailure classifies one failed database fetch.
type DBFetchFailure struct {
	Kind   DBFailureKind
	Reason string
}

func (f DBFetchFailure) String() string {
	switch f.Kind {
	case FailureLinked:
		return "linked database (the Notion API does not support retrieving linked databases)"
	case FailurePermission:
		return "permission denied: " + f.Reason
	case FailureNotFound:
		return "database not found"
	default:
		return f.Reason
	}
}

// classifyDatabaseFailure examines an error from RetrieveDatabase and
// classifies it into a failure reason.
func classifyDatabaseFailure(err error) DBFetchFailure {
	code := notion.ErrCode(err)
	message := notion.ErrMessage(err)

	switch {
	case strings.Contains(message, "linked database"):
		return DBFetchFailure{Kind: FailureLinked}
	case code == notion.CodeObjectNotFound:
		return DBFetchFailure{Kind: FailureNotFound}
	case code == notion.CodeRestrictedResource || code == notion.CodeUnauthorized:
		return DBFetchFailure{Kind: FailurePermission, Reason: fmt.Sprintf("%s: %s", code, message)}
	default:
		return DBFetchFailure{Kind: FailureOther, Reason: err.Error()}
	}
}

// sourceDatabasePattern matches the database ID Notion includes in
// "Could not find database with ID: <uuid>" error messages.
var sourceDatabasePattern = regexp.MustCompile(
	`Could not find database with ID: ([0-9a-fA-F-]{32,36})`)

// extractSourceDatabaseID pulls the source database ID out of a query
// error message. Best-effort: the heuristic depends on Notion's English
// message format, and a miss simply means no retry.
func extractSourceDatabaseID(err error) (id.ID, bool) {
	message := notion.ErrMessage(err)
	if message == "" {
		message = err.Error()
	}
	m := sourceDatabasePattern.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	sourceID, parseErr := id.Parse(m[1])
	if parseErr != nil {
		return "", false
	}
	return sourceID, true
}
