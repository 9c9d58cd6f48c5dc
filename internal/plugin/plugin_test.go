package plugin

import "testing"

func TestBaseDefaults(t *testing.T) {
	b := NewBase(nil)

	if b.MenuClass() != nil {
		t.Error("MenuClass() != nil")
	}
	if got := b.NotificationClasses(); len(got) != 0 {
		t.Errorf("NotificationClasses() = %v, want none", got)
	}
	if got := b.SettingsClasses(); len(got) != 0 {
		t.Errorf("SettingsClasses() = %v, want none", got)
	}
	if got := b.Callbacks(); len(got) != 0 {
		t.Errorf("Callbacks() = %v, want none", got)
	}
	if got := b.SaveData(); got == nil || len(got) != 0 {
		t.Errorf("SaveData() = %v, want empty map", got)
	}
	if b.InitialSettings == nil {
		t.Error("InitialSettings = nil, want empty map")
	}
}

func TestBaseRecordsWiring(t *testing.T) {
	b := NewBase(map[string]any{"k": "v"})

	menu := NewBaseMenu(nil)
	b.SetMenu(menu)
	if b.Menu != Menu(menu) {
		t.Error("SetMenu did not record the menu instance")
	}

	host := newFakeHost()
	b.SetupComplete(host)
	if b.Host != Host(host) {
		t.Error("SetupComplete did not record the host back-reference")
	}

	if b.InitialSettings["k"] != "v" {
		t.Error("initial settings lost")
	}
}

func TestBaseMenuCloseNotificationSlot(t *testing.T) {
	m := NewBaseMenu(nil)
	if m.CloseNotificationFunc() != nil {
		t.Error("CloseNotificationFunc() != nil by default")
	}

	called := false
	m.CloseNotification = func() { called = true }
	fn := m.CloseNotificationFunc()
	if fn == nil {
		t.Fatal("CloseNotificationFunc() = nil after assignment")
	}
	fn()
	if !called {
		t.Error("dismissal callable not invoked")
	}

	if got := m.Items(); got.Name != "" || len(got.Items) != 0 {
		t.Errorf("Items() = %+v, want empty descriptor", got)
	}
}
