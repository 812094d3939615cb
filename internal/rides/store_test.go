package rides

import (
	"strings"
	"testing"
	"time"
)

func TestBuildListQuery(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		filter   Filter
		wantSQL  []string
		wantArgs int
	}{
		{"no filter", Filter{}, nil, 0},
		{"rider", Filter{RiderID: 4}, []string{"WHERE rider_id=$1"}, 1},
		{"driver active", Filter{DriverID: 9, ActiveOnly: true},
			[]string{"driver_id=$1", "status NOT IN ('COMPLETED','CANCELLED')"}, 1},
		{"rider recent", Filter{RiderID: 4, Since: since},
			[]string{"rider_id=$1 AND created_at>=$2"}, 2},
		{"status and vehicle", Filter{Status: StatusRequested, VehicleType: "SUV"},
			[]string{"status=$1 AND vehicle_type=$2"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildListQuery(tt.filter)
			if !strings.HasSuffix(sql, "ORDER BY created_at DESC") {
				t.Errorf("query not ordered newest first: %s", sql)
			}
			if len(tt.wantSQL) == 0 && strings.Contains(sql, "WHERE") {
				t.Errorf("unexpected WHERE: %s", sql)
			}
			for _, frag := range tt.wantSQL {
				if !strings.Contains(sql, frag) {
					t.Errorf("query %q missing %q", sql, frag)
				}
			}
			if len(args) != tt.wantArgs {
				t.Errorf("args = %v, want %d", args, tt.wantArgs)
			}
		})
	}
}
