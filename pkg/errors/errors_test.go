package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/featuresync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "layer",
			ID:       "Southeast_BusinessDevelopment_Projects",
		}
		assert.Equal(t, "layer with ID Southeast_BusinessDevelopment_Projects not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("project", "Oak Ridge")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("Latitude", 91.5, "out of range")
		assert.Equal(t, "validation failed for field Latitude: out of range", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "empty mapping"}
		assert.Equal(t, "validation failed: empty mapping", err.Error())
	})
}

func TestParseError(t *testing.T) {
	t.Run("row error", func(t *testing.T) {
		base := errors.New(`strconv.ParseFloat: parsing "abc": invalid syntax`)
		err := pkgerrors.NewRowError("csv", "export.csv", 7, "Latitude", "invalid number", base)
		assert.Equal(t, "parse error in csv at export.csv:7 (Latitude): invalid number", err.Error())
		assert.ErrorIs(t, err, base)
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("file error", func(t *testing.T) {
		err := pkgerrors.NewParseError("xlsx", "export.xlsx", "no sheets", nil)
		assert.Equal(t, "parse error in xlsx file export.xlsx: no sheets", err.Error())
	})

	t.Run("no file", func(t *testing.T) {
		err := pkgerrors.NewParseError("yaml", "", "bad indent", nil)
		assert.Equal(t, "yaml parse error: bad indent", err.Error())
	})
}

func TestIOError(t *testing.T) {
	base := errors.New("permission denied")
	err := pkgerrors.NewIOError("open", "/data/export.csv", base)
	assert.Equal(t, "IO error during open of /data/export.csv: permission denied", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestResourceError(t *testing.T) {
	base := errors.New("no such table")
	err := pkgerrors.NewResourceError("load", "layer", "Projects", base)
	assert.Equal(t, "failed to load layer Projects: no such table", err.Error())

	noID := pkgerrors.NewResourceError("open", "store", "", base)
	assert.Equal(t, "failed to open store: no such table", noID.Error())
}

func TestExecuteError(t *testing.T) {
	t.Run("diagnostics", func(t *testing.T) {
		err := pkgerrors.NewExecuteError("XYTableToPoint", errors.New("field Longitude does not exist"),
			pkgerrors.Message{Severity: pkgerrors.SeverityWarning, Text: "table has 0 rows"},
			pkgerrors.Message{Severity: pkgerrors.SeverityInfo, Text: "start time: now"},
		)
		assert.Equal(t, "failed to execute XYTableToPoint: field Longitude does not exist", err.Error())
		assert.True(t, pkgerrors.IsExecution(err))

		assert.Equal(t, "ERROR: field Longitude does not exist", err.Messages(pkgerrors.SeverityError))
		all := err.Messages(pkgerrors.SeverityInfo)
		assert.Contains(t, all, "WARNING: table has 0 rows")
		assert.Contains(t, all, "INFO: start time: now")
	})

	t.Run("as from chain", func(t *testing.T) {
		err := fmt.Errorf("sync: %w", pkgerrors.NewExecuteError("Append", errors.New("constraint failed")))
		execErr, ok := pkgerrors.AsExecuteError(err)
		require.True(t, ok)
		assert.Equal(t, "Append", execErr.Tool)
	})

	t.Run("wrap keeps existing", func(t *testing.T) {
		inner := pkgerrors.NewExecuteError("Delete", errors.New("locked"))
		wrapped := pkgerrors.WrapExecute("Append", fmt.Errorf("ctx: %w", inner))
		execErr, ok := pkgerrors.AsExecuteError(wrapped)
		require.True(t, ok)
		assert.Equal(t, "Delete", execErr.Tool)
	})

	t.Run("coded message", func(t *testing.T) {
		m := pkgerrors.Message{Severity: pkgerrors.SeverityError, Code: "23505", Text: "duplicate key"}
		assert.Equal(t, "ERROR 23505: duplicate key", m.String())
	})
}

func TestTransactionError(t *testing.T) {
	base := errors.New("disk full")
	err := pkgerrors.NewTransactionError("append", "Projects", base)
	assert.Equal(t, "edit session on Projects aborted during append: disk full", err.Error())
	assert.True(t, pkgerrors.IsTransaction(err))
	assert.ErrorIs(t, err, base)

	noLayer := pkgerrors.NewTransactionError("commit", "", base)
	assert.Equal(t, "edit session aborted during commit: disk full", noLayer.Error())
}

func TestWrapHelpers(t *testing.T) {
	assert.NoError(t, pkgerrors.WrapValidation("f", nil))
	assert.NoError(t, pkgerrors.WrapIO("read", "p", nil))
	assert.NoError(t, pkgerrors.WrapResource("load", "layer", "x", nil))
	assert.NoError(t, pkgerrors.WrapParse("csv", "f", nil))
	assert.NoError(t, pkgerrors.WrapExecute("tool", nil))

	base := errors.New("boom")
	assert.ErrorIs(t, pkgerrors.WrapIO("read", "p", base), base)
	assert.ErrorIs(t, pkgerrors.WrapResource("load", "layer", "x", base), base)
	assert.ErrorIs(t, pkgerrors.WrapParse("csv", "f", base), base)
	assert.True(t, pkgerrors.IsExecution(pkgerrors.WrapExecute("tool", base)))
	assert.True(t, pkgerrors.IsValidationError(pkgerrors.WrapValidation("f", base)))
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		pkgerrors.ErrNotFound,
		pkgerrors.ErrInvalidInput,
		pkgerrors.ErrExecution,
		pkgerrors.ErrTransaction,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}
