package policy

import (
	"testing"

	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestRolePredicates(t *testing.T) {
	tests := []struct {
		role          models.ProjectRole
		view          bool
		editTasks     bool
		manageMembers bool
		manageProject bool
	}{
		{models.RoleManager, true, true, true, true},
		{models.RoleContributor, true, true, false, false},
		{models.RoleViewer, true, false, false, false},
		{models.ProjectRole("OVERLORD"), false, false, false, false},
		{models.ProjectRole(""), false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			require.Equal(t, tt.view, CanViewProject(tt.role))
			require.Equal(t, tt.editTasks, CanEditTasks(tt.role))
			require.Equal(t, tt.manageMembers, CanManageMembers(tt.role))
			require.Equal(t, tt.manageProject, CanManageProject(tt.role))
			require.Equal(t, tt.view, CanLeaveProject(tt.role))
		})
	}
}
