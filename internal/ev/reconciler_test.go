package ev

import "testing"

func TestReconcile(t *testing.T) {
	defaultResult := Result{Spread: DefaultCompetitiveSpread(), Provenance: ProvenanceDefaultMissing}
	articleResult := Result{Spread: Spread{HP: 244, Defense: 12, SpAtk: 252}, Provenance: ProvenanceArticle}
	goodImage := &ImageSpread{
		Slot:   1,
		Spread: Spread{HP: 252, Attack: 252, Defense: 4},
		Total:  508,
		Valid:  true,
	}

	tests := []struct {
		name  string
		text  Result
		image *ImageSpread
		want  Result
	}{
		{
			name:  "no image keeps text",
			text:  articleResult,
			image: nil,
			want:  articleResult,
		},
		{
			name:  "article text beats a valid image",
			text:  articleResult,
			image: goodImage,
			want:  articleResult,
		},
		{
			name:  "adjusted text beats a valid image",
			text:  Result{Spread: Spread{HP: 252, Defense: 4, SpAtk: 252}, Provenance: ProvenanceArticleAdjusted},
			image: goodImage,
			want:  Result{Spread: Spread{HP: 252, Defense: 4, SpAtk: 252}, Provenance: ProvenanceArticleAdjusted},
		},
		{
			name:  "default text yields to a valid image",
			text:  defaultResult,
			image: goodImage,
			want:  Result{Spread: Spread{HP: 252, Attack: 252, Defense: 4}, Provenance: ProvenanceImageExtracted},
		},
		{
			name:  "invalid tagged default also yields",
			text:  Result{Spread: DefaultCompetitiveSpread(), Provenance: ProvenanceDefaultInvalid},
			image: &ImageSpread{Slot: 1, Spread: Spread{HP: 180, SpAtk: 252, Speed: 4}, Total: 436, Valid: true},
			want:  Result{Spread: Spread{HP: 180, SpAtk: 252, Speed: 4}, Provenance: ProvenanceImageExtracted},
		},
		{
			name:  "structurally invalid image is ignored",
			text:  defaultResult,
			image: &ImageSpread{Slot: 1, Valid: false, Raw: "252/0/4/252/0"},
			want:  defaultResult,
		},
		{
			name:  "zero total image is ignored",
			text:  defaultResult,
			image: &ImageSpread{Slot: 1, Spread: Spread{}, Total: 0, Valid: true},
			want:  defaultResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.text, tt.image)
			if got != tt.want {
				t.Errorf("Reconcile() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReconcileTeam(t *testing.T) {
	texts := []Result{
		{Spread: Spread{HP: 244, Defense: 12, SpAtk: 252}, Provenance: ProvenanceArticle},
		{Spread: DefaultCompetitiveSpread(), Provenance: ProvenanceDefaultMissing},
		{Spread: DefaultCompetitiveSpread(), Provenance: ProvenanceDefaultCalculatedStats},
	}
	images := []ImageSpread{
		{Slot: 1, Spread: Spread{HP: 252, Attack: 252, Defense: 4}, Total: 508, Valid: true},
		{Slot: 2, Spread: Spread{HP: 4, Attack: 252, Speed: 252}, Total: 508, Valid: true},
		{Slot: 3, Spread: Spread{HP: 180, SpAtk: 252, Speed: 4}, Total: 436, Valid: true},
		{Slot: 9, Spread: Spread{HP: 252}, Total: 252, Valid: true},
	}

	got := ReconcileTeam(texts, images)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Provenance != ProvenanceArticle {
		t.Errorf("slot 1 provenance = %q, want text to win", got[0].Provenance)
	}
	if got[1].Provenance != ProvenanceImageExtracted || got[1].Spread != images[1].Spread {
		t.Errorf("slot 2 = %+v, want image spread", got[1])
	}
	if got[2].Provenance != ProvenanceImageExtracted || got[2].Spread != images[2].Spread {
		t.Errorf("slot 3 = %+v, want image spread", got[2])
	}
}

// Three or more accepted image spreads landing on the same total is the
// signature of a hallucinating vision model; those acceptances are
// backed out while distinct totals survive.
func TestReconcileTeamHallucinationBackout(t *testing.T) {
	def := Result{Spread: DefaultCompetitiveSpread(), Provenance: ProvenanceDefaultMissing}
	texts := []Result{def, def, def, def}
	repeated := Spread{HP: 252, Attack: 252, Defense: 4}
	images := []ImageSpread{
		{Slot: 1, Spread: repeated, Total: 508, Valid: true},
		{Slot: 2, Spread: repeated, Total: 508, Valid: true},
		{Slot: 3, Spread: repeated, Total: 508, Valid: true},
		{Slot: 4, Spread: Spread{HP: 180, SpAtk: 252, Speed: 4}, Total: 436, Valid: true},
	}

	got := ReconcileTeam(texts, images)
	for i := 0; i < 3; i++ {
		if got[i].Provenance != ProvenanceDefaultMissing {
			t.Errorf("slot %d provenance = %q, want the acceptance backed out", i+1, got[i].Provenance)
		}
		if got[i].Spread != DefaultCompetitiveSpread() {
			t.Errorf("slot %d spread = %+v, want default", i+1, got[i].Spread)
		}
	}
	if got[3].Provenance != ProvenanceImageExtracted {
		t.Errorf("slot 4 provenance = %q, want %q", got[3].Provenance, ProvenanceImageExtracted)
	}
}

// Two identical totals are ordinary; plenty of real teams run two
// 252/252/4 style spreads.
func TestReconcileTeamTwoIdenticalTotalsKept(t *testing.T) {
	def := Result{Spread: DefaultCompetitiveSpread(), Provenance: ProvenanceDefaultMissing}
	texts := []Result{def, def}
	repeated := Spread{HP: 252, Attack: 252, Defense: 4}
	images := []ImageSpread{
		{Slot: 1, Spread: repeated, Total: 508, Valid: true},
		{Slot: 2, Spread: repeated, Total: 508, Valid: true},
	}

	got := ReconcileTeam(texts, images)
	for i := range got {
		if got[i].Provenance != ProvenanceImageExtracted {
			t.Errorf("slot %d provenance = %q, want %q", i+1, got[i].Provenance, ProvenanceImageExtracted)
		}
	}
}

func TestReconcileTeamEndToEnd(t *testing.T) {
	article := "一匹目の調整は 244/0/12/252/0/0 です。二匹目と三匹目は画像を参照してください。"
	vision := "POKEMON_1: ガブリアス | EV_SPREAD: 252/252/4/0/0/0\n" +
		"POKEMON_2: カイリュー | EV_SPREAD: 252/252/4/0/0/0"

	first, firstProv := ExtractSpread(article)
	texts := []Result{
		{Spread: first, Provenance: firstProv},
		{Spread: DefaultCompetitiveSpread(), Provenance: ProvenanceDefaultMissing},
	}
	got := ReconcileTeam(texts, ParseImageAnalysis(vision))

	if got[0].Provenance != ProvenanceArticle {
		t.Errorf("slot 1 provenance = %q, want %q", got[0].Provenance, ProvenanceArticle)
	}
	want := Spread{HP: 244, Defense: 12, SpAtk: 252}
	if got[0].Spread != want {
		t.Errorf("slot 1 spread = %+v, want %+v", got[0].Spread, want)
	}
	if got[1].Provenance != ProvenanceImageExtracted {
		t.Errorf("slot 2 provenance = %q, want %q", got[1].Provenance, ProvenanceImageExtracted)
	}
	if got[1].Spread != (Spread{HP: 252, Attack: 252, Defense: 4}) {
		t.Errorf("slot 2 spread = %+v", got[1].Spread)
	}
}
