package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPrimaryChanges(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	phone := func(id string, primary bool, age int) *PhoneNumber {
		return &PhoneNumber{ID: id, IsPrimary: primary, CreatedAt: base.Add(-time.Duration(age) * time.Hour)}
	}

	tests := []struct {
		name        string
		phones      []*PhoneNumber
		wantPromote string
		wantDemote  []string
	}{
		{name: "空", phones: nil},
		{
			name:   "プライマリが1件",
			phones: []*PhoneNumber{phone("a", true, 2), phone("b", false, 1)},
		},
		{
			name:        "プライマリ不在なら最新を昇格",
			phones:      []*PhoneNumber{phone("old", false, 5), phone("new", false, 1)},
			wantPromote: "new",
		},
		{
			name:       "複数プライマリは最新以外を降格",
			phones:     []*PhoneNumber{phone("p1", true, 3), phone("p2", true, 1), phone("p3", true, 2), phone("x", false, 0)},
			wantDemote: []string{"p3", "p1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			promote, demote := PrimaryChanges(tt.phones)
			if promote != tt.wantPromote {
				t.Errorf("promote = %q, want %q", promote, tt.wantPromote)
			}
			if diff := cmp.Diff(tt.wantDemote, demote); diff != "" {
				t.Errorf("demote mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrimaryChanges_DoesNotReorderInput(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	phones := []*PhoneNumber{
		{ID: "a", CreatedAt: base},
		{ID: "b", CreatedAt: base.Add(time.Hour)},
	}

	PrimaryChanges(phones)

	if phones[0].ID != "a" || phones[1].ID != "b" {
		t.Errorf("input order changed: %s, %s", phones[0].ID, phones[1].ID)
	}
}

func TestHasPendingCode(t *testing.T) {
	code := "123456"
	empty := ""
	now := time.Now()

	tests := []struct {
		name  string
		phone PhoneNumber
		want  bool
	}{
		{name: "コードと送信時刻あり", phone: PhoneNumber{VerificationCode: &code, CodeSentAt: &now}, want: true},
		{name: "コードなし", phone: PhoneNumber{CodeSentAt: &now}},
		{name: "空のコード", phone: PhoneNumber{VerificationCode: &empty, CodeSentAt: &now}},
		{name: "送信時刻なし", phone: PhoneNumber{VerificationCode: &code}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.phone.HasPendingCode(); got != tt.want {
				t.Errorf("HasPendingCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeOfDayString(t *testing.T) {
	if got := (TimeOfDay{Hour: 7, Minute: 5}).String(); got != "07:05" {
		t.Errorf("String() = %q, want 07:05", got)
	}
	if got := DefaultNotificationTime.String(); got != "18:00" {
		t.Errorf("default = %q, want 18:00", got)
	}
}

func TestNotificationPreference_EnabledTypes(t *testing.T) {
	p := NewNotificationPreference("u", "c", "p")
	if diff := cmp.Diff(CollectionTypes(), p.EnabledTypes()); diff != "" {
		t.Errorf("defaults should enable every type (-want +got):\n%s", diff)
	}

	p.NotifyCompost = false
	p.NotifyBulkyWaste = false
	want := []CollectionType{CollectionGarbage, CollectionRecycling, CollectionYardWaste, CollectionChristmasTrees}
	if diff := cmp.Diff(want, p.EnabledTypes()); diff != "" {
		t.Errorf("EnabledTypes mismatch (-want +got):\n%s", diff)
	}
	if p.Enabled(CollectionType("unknown")) {
		t.Error("unknown collection type should not be enabled")
	}
}

func TestCollectionType_Valid(t *testing.T) {
	for _, c := range CollectionTypes() {
		if !c.Valid() {
			t.Errorf("%q should be valid", c)
		}
		if c.DisplayName() == string(c) {
			t.Errorf("%q should have a display name", c)
		}
	}
	if CollectionType("sans").Valid() {
		t.Error("sans should not be a collection type")
	}
}

func TestCollectionType_DisplayName(t *testing.T) {
	want := map[CollectionType]string{
		CollectionGarbage:        "Déchets",
		CollectionRecycling:      "Récupération",
		CollectionCompost:        "Compost",
		CollectionYardWaste:      "Résidus verts",
		CollectionChristmasTrees: "Arbres de Noël",
		CollectionBulkyWaste:     "Encombrants",
	}
	got := make(map[CollectionType]string, len(want))
	for _, c := range CollectionTypes() {
		got[c] = c.DisplayName()
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("display names mismatch (-want +got):\n%s", diff)
	}
}
