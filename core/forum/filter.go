package forum

import (
	"sort"
	"strings"
)

// FilterPosts filters and sorts a post listing in memory. Search matches
// title, content, author name or any tag (case-insensitive); an empty or
// "All Categories" category matches everything. The input slice is not
// mutated.
func FilterPosts(posts []Post, search, category, sortBy string) []Post {
	search = strings.ToLower(search)

	filtered := make([]Post, 0, len(posts))
	for _, post := range posts {
		if !matchesSearch(post, search) {
			continue
		}
		if category != "" && category != "All Categories" && post.Category != category {
			continue
		}
		filtered = append(filtered, post)
	}

	switch sortBy {
	case SortNewest:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].CreatedAt.After(filtered[j].CreatedAt) })
	case SortOldest:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].CreatedAt.Before(filtered[j].CreatedAt) })
	case SortMostReplies:
		sort.SliceStable(filtered, func(i, j int) bool { return len(filtered[i].Replies) > len(filtered[j].Replies) })
	case SortMostUpvotes:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Upvotes > filtered[j].Upvotes })
	default: // pinned first, then newest
		sort.SliceStable(filtered, func(i, j int) bool {
			if filtered[i].IsPinned != filtered[j].IsPinned {
				return filtered[i].IsPinned
			}
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		})
	}
	return filtered
}

func matchesSearch(post Post, search string) bool {
	if search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(post.Title), search) ||
		strings.Contains(strings.ToLower(post.Content), search) ||
		strings.Contains(strings.ToLower(post.Author.Name), search) {
		return true
	}
	for _, tag := range post.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}
