package types //nolint:revive // types is a valid package name

import (
	"testing"
)

func TestSessionMeta_Validate(t *testing.T) {
	parent := "session-parent-001"

	tests := []struct {
		name    string
		meta    SessionMeta
		wantErr bool
	}{
		{
			name:    "empty session_id",
			meta:    SessionMeta{SessionID: "", Attempt: 1},
			wantErr: true,
		},
		{
			name:    "attempt zero",
			meta:    SessionMeta{SessionID: "session-001", Attempt: 0},
			wantErr: true,
		},
		{
			name:    "initial session with parent_session_id",
			meta:    SessionMeta{SessionID: "session-001", Attempt: 1, ParentSessionID: &parent},
			wantErr: true,
		},
		{
			name:    "resumed session without parent_session_id",
			meta:    SessionMeta{SessionID: "session-001", Attempt: 2, ParentSessionID: nil},
			wantErr: true,
		},
		{
			name:    "valid initial session",
			meta:    SessionMeta{SessionID: "session-001", Attempt: 1},
			wantErr: false,
		},
		{
			name:    "valid resumed session",
			meta:    SessionMeta{SessionID: "session-002", Attempt: 2, ParentSessionID: &parent},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
