package memory

import (
	"context"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

func (s *Store) InsertAudit(_ context.Context, e core.AuditEntry) error {
	defer s.lock()()
	s.st.audit = append(s.st.audit, e)
	return nil
}

// ListAudit pages newest first.
func (s *Store) ListAudit(_ context.Context, limit, offset int) ([]core.AuditEntry, int64, error) {
	defer s.rlock()()
	n := len(s.st.audit)
	out := []core.AuditEntry{}
	for i := n - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.st.audit[i])
	}
	return out, int64(n), nil
}
