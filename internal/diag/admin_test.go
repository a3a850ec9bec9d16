package diag

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachAdminRoutesRegistersTailsql(t *testing.T) {
	journal := openTestJournal(t)

	mux := http.NewServeMux()
	require.NoError(t, journal.AttachAdminRoutes(mux))

	req := httptest.NewRequest(http.MethodGet, "/debug/tailsql/", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusNotFound, rec.Code, "tailsql route should be registered")
}

func TestAttachAdminRoutesRegistersBackup(t *testing.T) {
	journal := openTestJournal(t)

	mux := http.NewServeMux()
	require.NoError(t, journal.AttachAdminRoutes(mux))

	req := httptest.NewRequest(http.MethodGet, "/debug/journal-backup", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusNotFound, rec.Code, "backup route should be registered")
}
