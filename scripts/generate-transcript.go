//go:build ignore

// Package main generates synthetic sales-call transcripts for testing.
// Usage: go run scripts/generate-transcript.go -calls 10 -output testdata/transcripts
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	numCalls  = flag.Int("calls", 10, "Number of transcripts to generate")
	outputDir = flag.String("output", "testdata/transcripts", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

type turn struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type phaseBoundary struct {
	Phase          string `json:"phase"`
	StartTimestamp string `json:"start_timestamp"`
}

type transcript struct {
	TranscriptID string          `json:"transcript_id"`
	Turns        []turn          `json:"turns"`
	Phases       []phaseBoundary `json:"phases"`
}

// Each phase carries its own line pools so the generated dialogue moves
// through a believable call arc.
type phaseScript struct {
	name     string
	turns    int
	agent    []string
	customer []string
}

var callScript = []phaseScript{
	{
		name:  "introduction",
		turns: 4,
		agent: []string{
			"Thanks for making the time today, how has your week been?",
			"Before we dive in, anything specific you want to make sure we cover?",
			"I saw your team just shipped the %s launch, congratulations.",
		},
		customer: []string{
			"Busy but good, we just wrapped up our %s rollout.",
			"Mainly I want to understand pricing and how onboarding works.",
			"Thanks, it has been a hectic quarter for the %s team.",
		},
	},
	{
		name:  "discovery",
		turns: 8,
		agent: []string{
			"Can you walk me through how your team handles %s today?",
			"How many people touch the %s workflow each week?",
			"What happens when the current %s process breaks down?",
			"Is %s something you measure today, or more of a gut feeling?",
		},
		customer: []string{
			"Honestly our %s process is mostly spreadsheets and tribal knowledge.",
			"About %d people across two teams, and it keeps growing.",
			"Someone files a ticket and it sits for days, %s is the main bottleneck.",
			"We track it loosely, but %s reporting is a pain point for leadership.",
		},
	},
	{
		name:  "pricing discussion",
		turns: 6,
		agent: []string{
			"The %s plan runs %d dollars a year for up to fifty seats.",
			"Annual billing brings that down about fifteen percent.",
			"We can also do a quarterly pilot at %d dollars to start small.",
		},
		customer: []string{
			"How does that compare to the %s tier?",
			"What would the total cost look like for %d seats?",
			"Our budget cycle closes next month, so timing matters.",
		},
	},
	{
		name:  "objection handling",
		turns: 4,
		agent: []string{
			"That is a fair concern, most teams migrate off %s in under two weeks.",
			"We handle %s compliance out of the box, including audit exports.",
		},
		customer: []string{
			"My worry is migration, we have years of data in %s.",
			"Security will ask about %s certification before we can sign anything.",
		},
	},
	{
		name:  "closing",
		turns: 4,
		agent: []string{
			"Let me send over a proposal for the %s plan by Friday.",
			"I will loop in our %s specialist for the technical review.",
		},
		customer: []string{
			"Sounds good, copy my colleague from %s on that email.",
			"Let's pencil in a follow-up for next Tuesday.",
		},
	},
}

var (
	products = []string{
		"analytics", "billing", "onboarding", "reporting", "forecasting",
		"inventory", "compliance", "procurement", "scheduling", "support",
	}
	tiers = []string{"starter", "team", "business", "enterprise"}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating %d transcripts in %s...\n", *numCalls, *outputDir)

	for i := 0; i < *numCalls; i++ {
		tr := generateCall(rng, i+1)
		if err := writeCall(tr); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", tr.TranscriptID, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generated %d transcripts successfully.\n", *numCalls)
}

func generateCall(rng *rand.Rand, n int) *transcript {
	tr := &transcript{TranscriptID: fmt.Sprintf("call-%03d", n)}

	minute := 0
	for _, phase := range callScript {
		tr.Phases = append(tr.Phases, phaseBoundary{
			Phase:          phase.name,
			StartTimestamp: stamp(minute),
		})
		for i := 0; i < phase.turns; i++ {
			speaker, pool := "agent", phase.agent
			if i%2 == 1 {
				speaker, pool = "customer", phase.customer
			}
			tr.Turns = append(tr.Turns, turn{
				Speaker:   speaker,
				Text:      fillLine(rng, pool[rng.Intn(len(pool))]),
				Timestamp: stamp(minute),
			})
			minute++
		}
	}
	return tr
}

// fillLine substitutes the %s and %d placeholders in a template line with
// random domain words and plausible figures.
func fillLine(rng *rand.Rand, template string) string {
	args := make([]any, 0, 2)
	for i := 0; i+1 < len(template); i++ {
		if template[i] != '%' {
			continue
		}
		switch template[i+1] {
		case 's':
			if rng.Intn(3) == 0 {
				args = append(args, tiers[rng.Intn(len(tiers))])
			} else {
				args = append(args, products[rng.Intn(len(products))])
			}
		case 'd':
			args = append(args, (rng.Intn(40)+8)*1000)
		}
	}
	return fmt.Sprintf(template, args...)
}

func stamp(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

func writeCall(tr *transcript) error {
	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(*outputDir, tr.TranscriptID+".json")
	return os.WriteFile(path, append(data, '\n'), 0644)
}
