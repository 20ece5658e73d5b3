package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"ecom_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/gocql/gocql"
)

const productsIndex = "products"

// ProductIndex maintient l'index de recherche des produits.
type ProductIndex interface {
	Index(ctx context.Context, p models.Product) error
	Remove(ctx context.Context, id gocql.UUID) error
	Search(ctx context.Context, query string) ([]gocql.UUID, error)
}

// ElasticIndex indexe les produits dans Elasticsearch.
type ElasticIndex struct {
	client *elasticsearch.Client
}

func NewElasticIndex(client *elasticsearch.Client) *ElasticIndex {
	return &ElasticIndex{client: client}
}

type indexedProduct struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
}

func (e *ElasticIndex) Index(ctx context.Context, p models.Product) error {
	data, err := json.Marshal(indexedProduct{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.CategoryID.String(),
		Price:       p.Price,
	})
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      productsIndex,
		DocumentID: p.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("erreur envoi Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elastic a renvoyé une erreur pour %s: %s", p.Name, res.String())
	}
	log.Printf("✅ Produit indexé dans Elasticsearch: %s", p.Name)
	return nil
}

func (e *ElasticIndex) Remove(ctx context.Context, id gocql.UUID) error {
	req := esapi.DeleteRequest{Index: productsIndex, DocumentID: id.String(), Refresh: "true"}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("erreur suppression Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elastic a renvoyé une erreur: %s", res.String())
	}
	return nil
}

// Search cherche par nom ou description et retourne les identifiants par pertinence.
func (e *ElasticIndex) Search(ctx context.Context, query string) ([]gocql.UUID, error) {
	var buf bytes.Buffer
	q := map[string]any{
		"size": 50,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{Index: []string{productsIndex}, Body: &buf}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.New("index non trouvé ou vide")
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %w", err)
	}

	ids := make([]gocql.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		if id, err := gocql.ParseUUID(hit.ID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// matchProduct est le filtre utilisé sans Elasticsearch.
func matchProduct(p models.Product, terms []string) bool {
	text := strings.ToLower(p.Name + " " + p.Description)
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}
