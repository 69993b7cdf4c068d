package transcript

import "testing"

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"00:00:00.000", 0},
		{"00:00:01.500", 1500},
		{"00:01:00.000", 60000},
		{"01:00:00.000", 3600000},
		{"01:02:03.456", 3723456},
		{"05:30.250", 330250},
		{"12:05", 725000},
		{" 00:00:02.000 ", 2000},
		{"garbage", 0},
		{"", 0},
	}

	for _, tc := range cases {
		if got := ParseTimestamp(tc.in); got != tc.want {
			t.Errorf("ParseTimestamp(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseVTTVoiceTags(t *testing.T) {
	content := `WEBVTT

00:00:00.000 --> 00:00:05.000
<v Alice Johnson>Good morning everyone, let's get started.

00:00:05.000 --> 00:00:10.000
<v Bob Smith>Morning. I finished the migration yesterday.
`

	got := ParseVTT(content)
	if len(got) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(got))
	}
	if got[0].Speaker != "Alice Johnson" {
		t.Errorf("expected speaker Alice Johnson, got %q", got[0].Speaker)
	}
	if got[0].Text != "Good morning everyone, let's get started." {
		t.Errorf("unexpected text %q", got[0].Text)
	}
	if got[0].StartMS != 0 || got[0].EndMS != 5000 {
		t.Errorf("unexpected timestamps %d-%d", got[0].StartMS, got[0].EndMS)
	}
	if got[1].Speaker != "Bob Smith" || got[1].StartMS != 5000 {
		t.Errorf("second utterance wrong: %+v", got[1])
	}
}

func TestParseVTTColonSpeakers(t *testing.T) {
	content := `WEBVTT

00:00:00.000 --> 00:00:04.000
Alice: We need to decide on the rollout plan.

00:00:04.000 --> 00:00:08.000
Bob: I think we should wait until the tests pass.
`

	got := ParseVTT(content)
	if len(got) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(got))
	}
	if got[0].Speaker != "Alice" || got[1].Speaker != "Bob" {
		t.Errorf("colon speakers not extracted: %q, %q", got[0].Speaker, got[1].Speaker)
	}
}

func TestParseVTTSkipsNotesAndHeader(t *testing.T) {
	content := `WEBVTT - This file has a header suffix

NOTE
Confidentiality notice, not a cue.

NOTE duration=00:10:00

00:00:00.000 --> 00:00:03.000
Alice: Only this line is a real cue.
`

	got := ParseVTT(content)
	if len(got) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(got))
	}
	if got[0].Text != "Only this line is a real cue." {
		t.Errorf("unexpected text %q", got[0].Text)
	}
}

func TestParseVTTUnknownSpeaker(t *testing.T) {
	content := `WEBVTT

00:00:00.000 --> 00:00:02.000
A line with no speaker attribution at all

00:00:02.000 --> 00:00:04.000
unknown: attribution is explicitly unknown
`

	got := ParseVTT(content)
	if len(got) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(got))
	}
	for i, u := range got {
		if u.Speaker != UnknownSpeaker {
			t.Errorf("utterance %d: expected %q, got %q", i, UnknownSpeaker, u.Speaker)
		}
	}
}

func TestParseVTTDropsEmptyCues(t *testing.T) {
	content := `WEBVTT

00:00:00.000 --> 00:00:02.000

00:00:02.000 --> 00:00:04.000
Alice: Something real.
`

	got := ParseVTT(content)
	if len(got) != 1 {
		t.Fatalf("empty cue should be dropped, got %d utterances", len(got))
	}
}

func TestParseVTTEmptyInput(t *testing.T) {
	if got := ParseVTT(""); len(got) != 0 {
		t.Errorf("expected no utterances from empty input, got %d", len(got))
	}
	if got := ParseVTT("WEBVTT\n"); len(got) != 0 {
		t.Errorf("expected no utterances from header-only input, got %d", len(got))
	}
}
