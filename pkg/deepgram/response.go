package deepgram

import (
	"fmt"
	"strings"
)

// maxWordsPerSegment splits long monologues when utterances are missing.
const maxWordsPerSegment = 50

type listenResponse struct {
	Results struct {
		Utterances []utterance `json:"utterances"`
		Channels   []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
				Words      []word `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

type utterance struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Transcript string  `json:"transcript"`
	Speaker    int     `json:"speaker"`
}

type word struct {
	Word           string  `json:"word"`
	PunctuatedWord string  `json:"punctuated_word"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	Speaker        *int    `json:"speaker"`
}

func ms(sec float64) int64 { return int64(sec * 1000) }

// segments prefers utterances. Without them the first channel's words are
// grouped at sentence ends, speaker changes and every 50 words.
func (r listenResponse) segments(diarize bool) []Segment {
	if len(r.Results.Utterances) > 0 {
		out := make([]Segment, 0, len(r.Results.Utterances))
		for _, u := range r.Results.Utterances {
			speaker := "Speaker 1"
			if diarize {
				speaker = fmt.Sprintf("Speaker %d", u.Speaker)
			}
			out = append(out, Segment{
				StartMs:       ms(u.Start),
				EndMs:         ms(u.End),
				FinalSentence: u.Transcript,
				SpeakerID:     speaker,
			})
		}
		return out
	}

	if len(r.Results.Channels) == 0 || len(r.Results.Channels[0].Alternatives) == 0 {
		return nil
	}
	return groupWords(r.Results.Channels[0].Alternatives[0].Words, diarize)
}

func groupWords(words []word, diarize bool) []Segment {
	var (
		out     []Segment
		current []string
		start   float64
		speaker int
	)
	flush := func(end float64) {
		out = append(out, Segment{
			StartMs:       ms(start),
			EndMs:         ms(end),
			FinalSentence: strings.Join(current, " "),
			SpeakerID:     fmt.Sprintf("Speaker %d", speaker+1),
		})
		current = current[:0]
	}

	for _, w := range words {
		text := w.PunctuatedWord
		if text == "" {
			text = w.Word
		}
		ws := 0
		if diarize && w.Speaker != nil {
			ws = *w.Speaker
		}

		if len(current) > 0 && diarize && ws != speaker {
			flush(w.Start)
		}
		if len(current) == 0 {
			start = w.Start
			speaker = ws
		}

		current = append(current, text)
		if strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") ||
			len(current) >= maxWordsPerSegment {
			flush(w.End)
		}
	}
	if len(current) > 0 {
		flush(words[len(words)-1].End)
	}
	return out
}
