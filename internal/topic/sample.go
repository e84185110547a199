package topic

import (
	"fmt"
	"strings"
	"time"
)

var sampleAuthors = []string{"alice", "bob", "carol", "dave", "erin", "frank"}

// Sample builds a topic with n generated posts, one every ten minutes
// before now. Post bodies vary in length so the stream has uneven heights.
func Sample(n int, now time.Time) *Topic {
	t := &Topic{
		ID:       1,
		Slug:     "virtualizing-long-discussion-threads",
		Title:    "Virtualizing long discussion threads",
		Category: "dev",
	}
	for i := 1; i <= n; i++ {
		var body strings.Builder
		fmt.Fprintf(&body, "Reply %d about keeping long streams fast.", i)
		for j := 0; j < i%4; j++ {
			body.WriteString("\n\nOnly posts near the viewport are fully rendered; the rest keep their height as placeholders.")
		}
		if i%7 == 0 {
			body.WriteString("\n\n```go\nfor _, p := range posts {\n\trender(p)\n}\n```")
		}
		t.Posts = append(t.Posts, Post{
			Number:    i,
			Author:    sampleAuthors[i%len(sampleAuthors)],
			CreatedAt: now.Add(-time.Duration(n-i+1) * 10 * time.Minute),
			Body:      body.String(),
		})
	}
	return t
}
