package notify

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/syncerr"
)

func TestFailure_NamesSubject(t *testing.T) {
	n := Failure("delete product", "Green Tea", syncerr.Transient(errors.New("refused"), "DELETE"))
	assert.Equal(t, LevelError, n.Level)
	assert.Contains(t, n.Message, "delete product")
	assert.Contains(t, n.Message, "Green Tea")
	assert.False(t, n.Relogin)
}

func TestFailure_UnauthorizedAsksRelogin(t *testing.T) {
	n := Failure("delete product", "Green Tea", syncerr.FromStatus(401, "DELETE"))
	assert.True(t, n.Relogin)
	assert.Contains(t, n.Message, "log in")
}

func TestRecorderAndTerminal(t *testing.T) {
	var r Recorder
	r.Notify(Info("save", "site_name", "saved"))
	assert.Len(t, r.All(), 1)

	var buf bytes.Buffer
	term := NewTerminal(&buf)
	term.Notify(Failure("remove cart line", "p1", syncerr.FromStatus(403, "DELETE")))
	assert.Contains(t, buf.String(), "p1")
	assert.Contains(t, buf.String(), "storefront login")
}
