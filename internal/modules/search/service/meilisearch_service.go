package service

import (
	"encoding/json"
	"html"
	"log"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"openjournal.app/backend/internal/entity"
)

const (
	manuscriptsIndex = "manuscripts"
	articlesIndex    = "articles"
)

// SearchService maintains the meilisearch indexes behind the gateway search
// endpoints. A nil client disables indexing and makes Search* return
// (nil, false, nil) so callers can fall back to a database scan.
type SearchService interface {
	IndexManuscript(manuscript *entity.Manuscript) error
	IndexArticle(article *entity.Article, authorNames []string) error
	DeleteManuscript(id string) error
	SearchManuscripts(query string, limit int) ([]string, bool, error)
	SearchArticles(query string, limit int) ([]string, bool, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	if client != nil {
		s.initIndexes()
	}
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterable := []any{"status"}
	_, err := s.client.Index(manuscriptsIndex).UpdateFilterableAttributes(&filterable)
	if err != nil {
		log.Printf("Failed to update manuscripts filterable attributes: %v", err)
	}

	sortable := []string{"created_at"}
	_, err = s.client.Index(manuscriptsIndex).UpdateSortableAttributes(&sortable)
	if err != nil {
		log.Printf("Failed to update manuscripts sortable attributes: %v", err)
	}

	articleSortable := []string{"published_at"}
	_, err = s.client.Index(articlesIndex).UpdateSortableAttributes(&articleSortable)
	if err != nil {
		log.Printf("Failed to update articles sortable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

type meiliManuscriptDoc struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Abstract  string   `json:"abstract"`
	Keywords  []string `json:"keywords"`
	Status    string   `json:"status"`
	CreatedAt int64    `json:"created_at"`
}

type meiliArticleDoc struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Abstract    string   `json:"abstract"`
	Keywords    []string `json:"keywords"`
	Slug        string   `json:"slug"`
	Authors     []string `json:"authors"`
	PublishedAt int64    `json:"published_at"`
}

func (s *meiliSearchService) cleanForIndex(content string) string {
	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) IndexManuscript(manuscript *entity.Manuscript) error {
	if s.client == nil {
		return nil
	}

	doc := meiliManuscriptDoc{
		ID:        manuscript.ID.String(),
		Title:     s.cleanForIndex(manuscript.Title),
		Abstract:  s.cleanForIndex(manuscript.Abstract),
		Keywords:  manuscript.Keywords,
		Status:    string(manuscript.Status),
		CreatedAt: manuscript.CreatedAt.Unix(),
	}

	task, err := s.client.Index(manuscriptsIndex).AddDocuments([]meiliManuscriptDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed manuscript %s, task id: %d", manuscript.ID, task.TaskUID)
	return nil
}

func (s *meiliSearchService) IndexArticle(article *entity.Article, authorNames []string) error {
	if s.client == nil {
		return nil
	}

	doc := meiliArticleDoc{
		ID:          article.ID.String(),
		Title:       s.cleanForIndex(article.Title),
		Abstract:    s.cleanForIndex(article.Abstract),
		Keywords:    article.Keywords,
		Slug:        article.Slug,
		Authors:     authorNames,
		PublishedAt: article.PublishedAt.Unix(),
	}

	task, err := s.client.Index(articlesIndex).AddDocuments([]meiliArticleDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed article %s, task id: %d", article.ID, task.TaskUID)
	return nil
}

func (s *meiliSearchService) DeleteManuscript(id string) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index(manuscriptsIndex).DeleteDocument(id)
	return err
}

func (s *meiliSearchService) searchIDs(index, query string, limit int) ([]string, bool, error) {
	if s.client == nil {
		return nil, false, nil
	}

	res, err := s.client.Index(index).Search(query, &meilisearch.SearchRequest{
		Limit: int64(limit),
	})
	if err != nil {
		return nil, false, err
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		raw, ok := hit["id"]
		if !ok {
			continue
		}
		var id string
		if err := json.Unmarshal(raw, &id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, true, nil
}

func (s *meiliSearchService) SearchManuscripts(query string, limit int) ([]string, bool, error) {
	return s.searchIDs(manuscriptsIndex, query, limit)
}

func (s *meiliSearchService) SearchArticles(query string, limit int) ([]string, bool, error) {
	return s.searchIDs(articlesIndex, query, limit)
}

func strPtr(s string) *string {
	return &s
}
