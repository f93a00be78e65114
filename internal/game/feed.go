package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxPostLength = 280

var tipTemplates = []string{
	"Loading up on more %s here. %s feels cheap.",
	"Anyone else watching %s? Chart looks ready to move from %s.",
	"Trimmed my %s position at %s. Taking profits is a strategy too.",
	"%s at %s. Not financial advice, but I'm buying.",
}

func assetTipPost(d *Dice, q Quote, now time.Time) Post {
	author := pick(d, fillerAuthors)
	return Post{
		ID:        uuid.NewString(),
		Author:    author,
		Handle:    handleFor(author),
		Content:   fmt.Sprintf(pick(d, tipTemplates), q.Symbol, FormatUSD(q.Price)),
		Timestamp: now.Add(-time.Duration(d.Intn(120)) * time.Minute),
		Link:      PostLink{Kind: LinkAsset, Symbol: q.Symbol},
	}
}

func fillerPost(d *Dice, now time.Time) Post {
	author := pick(d, fillerAuthors)
	return Post{
		ID:        uuid.NewString(),
		Author:    author,
		Handle:    handleFor(author),
		Content:   pick(d, fillerLines),
		Timestamp: now.Add(-time.Duration(d.Intn(180)) * time.Minute),
	}
}

func marketPost(u MarketUpdate, now time.Time) Post {
	return Post{
		ID:        uuid.NewString(),
		Author:    "Market Wire",
		Handle:    "@marketwire",
		Content:   u.Headline,
		Timestamp: now,
		Link:      PostLink{Kind: LinkMarket},
	}
}

// AddPost records a player post. It shows at the top of the next refreshed
// feed and stays in the player's post history.
func AddPost(s *State, content string, media []string, now time.Time) (Post, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(media) == 0 {
		return Post{}, fmt.Errorf("%w: post needs text or media", ErrInvalidState)
	}
	if len([]rune(content)) > maxPostLength {
		return Post{}, fmt.Errorf("%w: post longer than %d characters", ErrInvalidState, maxPostLength)
	}
	p := Post{
		ID:         uuid.NewString(),
		Author:     s.Player.Name,
		Handle:     s.Player.Handle,
		FromPlayer: true,
		Content:    content,
		MediaRefs:  append([]string(nil), media...),
		Timestamp:  now,
	}
	s.UserPosts = append(s.UserPosts, p)
	s.PendingPosts = append(s.PendingPosts, p)
	return p, nil
}

// composeFeed shuffles the generated posts and puts queued player posts on
// top, newest first. The queue is emptied so each player post tops one feed.
func composeFeed(s *State, d *Dice) {
	generated := s.Feed
	d.Shuffle(len(generated), func(i, j int) {
		generated[i], generated[j] = generated[j], generated[i]
	})
	top := make([]Post, 0, len(s.PendingPosts))
	for i := len(s.PendingPosts) - 1; i >= 0; i-- {
		top = append(top, s.PendingPosts[i])
	}
	s.Feed = append(top, generated...)
	s.PendingPosts = nil
}
