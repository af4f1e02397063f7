package service

import (
	"fmt"
	"strings"

	"MagicMentor-server/models"
)

const describePrompt = `Analyze this child's drawing in detail:
1. Main Subject: What is the primary focus?
2. Colors: List all colors used with descriptive names (e.g., "bright neon orange", "soft sky blue"), never hex codes
3. Lines & Strokes: Describe the line quality (bold, shaky, curved, straight)
4. Composition: Where are elements placed? What's empty?
5. Details: Any patterns, textures, or unique marks?
Answer as one free-text paragraph, not JSON. Be specific and educational. 100+ words.`

const previousBriefPrompt = "Briefly describe this drawing in 30 words."

func comparePrompt(previousBrief, lastAdvice string) string {
	if lastAdvice == "" {
		lastAdvice = "None"
	}
	return fmt.Sprintf(`COMPARE these TWO children's drawings:

PREVIOUS VERSION: (I will describe) %s

CURRENT VERSION: (analyze the image you see)

Identify SPECIFIC changes between the previous and current version:
1. What NEW elements were ADDED?
2. What was REMOVED or CHANGED?
3. Did they follow the previous advice: "%s"?
4. Rate improvement on scale 1-5 stars.

Be specific about visual differences. 50+ words.`, previousBrief, lastAdvice)
}

const coachSystemInstruction = `You are Magic Kat, a world-class Art Professor and Mentor for children aged 5-10.
Your superpower is "Diagnostic Vision" - you can see every stroke, color, and detail.

Your goal is to provide RICH, SPECIFIC, EDUCATIONAL feedback that helps children understand their own art.

STRICT PROTOCOL:
1. EVIDENCE FIRST: Always cite specific colors, shapes, objects you observe
2. ART VOCABULARY: Introduce simple art terms (composition, contrast, palette) and explain them
3. DETAILED ANALYSIS: Provide 200-300 words of genuine artistic insight
4. SPECIFIC PRAISE: Never generic "good job" - always reference exact elements
5. ACTIONABLE MISSIONS: Give concrete, achievable tasks based on visual gaps
6. WARM ENCOURAGEMENT: End with enthusiasm and excitement for their next iteration
7. Output STRICT JSON format only.`

// coachPrompt 拼装视觉证据 + 对比结果 + 固定的教学模板
func coachPrompt(evidence, comparison string, sc models.SeriesContext, step int) string {
	var b strings.Builder
	if comparison != "" {
		fmt.Fprintf(&b, "VISUAL EVIDENCE (CURRENT): %s\n\nITERATION COMPARISON: %s\n\n", evidence, comparison)
	} else {
		fmt.Fprintf(&b, "VISUAL EVIDENCE: %s\n\n", evidence)
	}

	b.WriteString(`Perform a DEEP ART ANALYSIS of this child's drawing.

**PHASE 1: VISUAL EVIDENCE (Be Specific!)**
- PRIMARY SUBJECT: What did the child draw? Describe it in detail.
- COLOR PALETTE: List specific colors (e.g., "bright neon orange", "soft sky blue")
- LINE QUALITY: Describe strokes (e.g., "bold confident outlines", "playful zigzags")
- COMPOSITION: Where are elements placed? What's empty? What's crowded?
- TEXTURE & DETAIL: Any patterns, shading, or unique marks?
`)
	if step > 1 {
		lastAdvice := sc.LastAdvice
		if lastAdvice == "" {
			lastAdvice = "None"
		}
		fmt.Fprintf(&b, "- ITERATION CHECK: Did they follow previous advice: %q?\n", lastAdvice)
	}
	if sc.ArtStyle != "" {
		fmt.Fprintf(&b, "- STYLE CONTEXT: Earlier versions reminded us of %s.\n", sc.ArtStyle)
	}

	improvement := "I am excited to see how your vision grows in the next version!"
	if step > 1 {
		improvement = "Detailed comparison of what changed from the previous drawing"
	}
	fmt.Fprintf(&b, `
**PHASE 2: TEACHING FEEDBACK (200-300 words total)**
Generate this JSON:
{
  "visualDiagnosis": "I see [detailed 100+ word description citing specific colors, shapes, and composition choices]...",
  "masterConnection": {
    "artist": "Famous Artist Name",
    "reason": "Detailed explanation of the artistic link (50+ words)"
  },
  "coachAdvice": {
    "compliment": "Specific praise for a particular element they drew well",
    "gapAnalysis": "What's missing or could be enhanced (be specific about location/element)",
    "actionableTask": "One clear, achievable instruction for their next version",
    "techniqueTip": "A professional art technique explained simply for a child"
  },
  "improvement": "%s"
}

OUTPUT: STRICT JSON ONLY.
`, improvement)
	return b.String()
}

func matchPrompt(catalog []models.Masterpiece) string {
	var b strings.Builder
	b.WriteString("Analyze this child's drawing and find the 3 most similar famous artworks from this list:\n\n")
	for _, m := range catalog {
		fmt.Fprintf(&b, "- %s: %q by %s (%s)\n", m.ID, m.Title, m.Artist, strings.Join(m.Tags, ", "))
	}
	b.WriteString(`
Return JSON array with exactly 3 matches:
[
  {
    "matchId": "exact_id_from_list",
    "analysis": "Why this matches (50+ words)",
    "suggestion": "How to explore this style further",
    "commonFeatures": ["feature1", "feature2", "feature3"]
  },
  ...
]

OUTPUT: JSON ARRAY ONLY.`)
	return b.String()
}
