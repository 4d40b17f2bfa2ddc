package meta

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusInProgress, StatusOnHold, true},
		{StatusOnHold, StatusAwaiting, true},
		{StatusDone, StatusInProgress, true},
		{StatusDone, StatusCompleted, true},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusCompleted, false},
		{Status("UNKNOWN"), StatusInProgress, false},
		{StatusPending, Status("UNKNOWN"), false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s)=%v, esperava %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanComplete(t *testing.T) {
	cases := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{"progresso incompleto", Snapshot{Progresso: 99}, false},
		{"progresso cheio sem exigência", Snapshot{Progresso: 100}, true},
		{"exige relatório não enviado", Snapshot{Progresso: 100, ExigeRelatorioConclusao: true}, false},
		{"exige relatório enviado", Snapshot{Progresso: 100, ExigeRelatorioConclusao: true, RelatorioConclusaoEnviado: true}, true},
		{"relatório enviado não compensa progresso", Snapshot{Progresso: 50, RelatorioConclusaoEnviado: true}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanComplete(tc.snap); got != tc.want {
				t.Fatalf("CanComplete=%v, esperava %v", got, tc.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(StatusCompleted) {
		t.Fatal("COMPLETED deveria ser terminal")
	}
	for _, s := range []Status{StatusPending, StatusInProgress, StatusOnHold, StatusAwaiting, StatusDone} {
		if IsTerminal(s) {
			t.Fatalf("%s não deveria ser terminal", s)
		}
	}
}
