package milvus

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeExpr(t *testing.T) {
	assert.Equal(t, "tenant-1", escapeExpr("tenant-1"))
	assert.Equal(t, `a\"b`, escapeExpr(`a"b`))
	assert.Equal(t, `a\\b`, escapeExpr(`a\b`))
	assert.Equal(t, `a\\\"b`, escapeExpr(`a\"b`))
}

func TestEscapeExpr_DistinctTenantsStayDistinct(t *testing.T) {
	// IDs differing only in quoting characters must not alias to the
	// same filter value.
	assert.NotEqual(t, escapeExpr(`ab`), escapeExpr(`a"b`))
	assert.NotEqual(t, escapeExpr(`ab`), escapeExpr(`a\b`))
	assert.NotEqual(t, escapeExpr(`a"b`), escapeExpr(`a\"b`))
}

func TestEscapeExpr_CannotTerminateFilterLiteral(t *testing.T) {
	malicious := `x" || tenant_id != "`

	filter := fmt.Sprintf(`%s == "%s"`, fieldTenantID, escapeExpr(malicious))

	// Every quote inside the value stays escaped; the literal ends at
	// the closing quote the filter itself supplies.
	assert.Equal(t, `tenant_id == "x\" || tenant_id != \""`, filter)
}
