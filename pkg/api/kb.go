package api

import (
	"context"
	"net/url"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// KnowledgeBaseService covers the analyst knowledge base.
type KnowledgeBaseService struct {
	t *transport.Transport
}

// Article is one knowledge-base entry.
type Article struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

// Search returns articles matching the query string.
func (s *KnowledgeBaseService) Search(ctx context.Context, query string) ([]Article, error) {
	q := url.Values{"q": {query}}
	var articles []Article
	err := s.t.Get(ctx, "/api/kb/articles", q, &articles)
	return articles, err
}

// Get returns one article.
func (s *KnowledgeBaseService) Get(ctx context.Context, id string) (*Article, error) {
	var a Article
	if err := s.t.Get(ctx, "/api/kb/articles/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
