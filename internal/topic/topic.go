// Package topic holds the thread being read: a title and its posts in
// stream order.
package topic

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrNoPosts       = errors.New("topic has no posts")
	ErrDuplicatePost = errors.New("duplicate post number")
	ErrUnknownPost   = errors.New("unknown post")
	ErrEmptyPostBody = errors.New("post body is empty")
)

type Post struct {
	Number    int       `yaml:"number"`
	Author    string    `yaml:"author"`
	CreatedAt time.Time `yaml:"created_at"`
	Body      string    `yaml:"body"`
	ReplyTo   int       `yaml:"reply_to,omitempty"`
	// Revision is bumped every time the post is edited.
	Revision int `yaml:"revision,omitempty"`
}

// ID is the stable identity of the post in render trees.
func (p Post) ID() string {
	return fmt.Sprintf("post-%d", p.Number)
}

// Excerpt returns the first line of the body, without markup characters.
func (p Post) Excerpt() string {
	line, _, _ := strings.Cut(strings.TrimSpace(p.Body), "\n")
	return strings.TrimLeft(line, "#> `")
}

type Topic struct {
	ID       int    `yaml:"id"`
	Slug     string `yaml:"slug"`
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	Posts    []Post `yaml:"posts"`
}

// normalize numbers unnumbered posts after their predecessor and sorts the
// stream.
func (t *Topic) normalize() error {
	if len(t.Posts) == 0 {
		return ErrNoPosts
	}
	next := 1
	for i := range t.Posts {
		if t.Posts[i].Number == 0 {
			t.Posts[i].Number = next
		}
		next = t.Posts[i].Number + 1
	}
	sort.SliceStable(t.Posts, func(i, j int) bool {
		return t.Posts[i].Number < t.Posts[j].Number
	})
	for i := 1; i < len(t.Posts); i++ {
		if t.Posts[i].Number == t.Posts[i-1].Number {
			return fmt.Errorf("%w %d", ErrDuplicatePost, t.Posts[i].Number)
		}
	}
	if t.Slug == "" {
		t.Slug = slugify(t.Title)
	}
	return nil
}

// Index returns the stream position of the post with number, or -1.
func (t *Topic) Index(number int) int {
	i := sort.Search(len(t.Posts), func(i int) bool {
		return t.Posts[i].Number >= number
	})
	if i < len(t.Posts) && t.Posts[i].Number == number {
		return i
	}
	return -1
}

func (t *Topic) Post(number int) (Post, bool) {
	if i := t.Index(number); i >= 0 {
		return t.Posts[i], true
	}
	return Post{}, false
}

// HighestPostNumber returns the number of the last post.
func (t *Topic) HighestPostNumber() int {
	if len(t.Posts) == 0 {
		return 0
	}
	return t.Posts[len(t.Posts)-1].Number
}

// Append adds a reply at the end of the stream and returns it numbered.
func (t *Topic) Append(author, body string, at time.Time) (Post, error) {
	if strings.TrimSpace(body) == "" {
		return Post{}, ErrEmptyPostBody
	}
	p := Post{
		Number:    t.HighestPostNumber() + 1,
		Author:    author,
		CreatedAt: at,
		Body:      body,
	}
	t.Posts = append(t.Posts, p)
	return p, nil
}

// Edit replaces the body of a post and bumps its revision.
func (t *Topic) Edit(number int, body string) (Post, error) {
	i := t.Index(number)
	if i < 0 {
		return Post{}, fmt.Errorf("%w %d", ErrUnknownPost, number)
	}
	t.Posts[i].Body = body
	t.Posts[i].Revision++
	return t.Posts[i], nil
}

// Replace swaps in a newer copy of a post, as fetched again from its source.
func (t *Topic) Replace(p Post) error {
	i := t.Index(p.Number)
	if i < 0 {
		return fmt.Errorf("%w %d", ErrUnknownPost, p.Number)
	}
	t.Posts[i] = p
	return nil
}

// URL returns the link to a post on the forum at base.
func (t *Topic) URL(base string, number int) string {
	base = strings.TrimRight(base, "/")
	if number <= 1 {
		return fmt.Sprintf("%s/t/%s/%d", base, t.Slug, t.ID)
	}
	return fmt.Sprintf("%s/t/%s/%d/%d", base, t.Slug, t.ID, number)
}

func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
