package elasticsearch

// DefaultIndexName is the index holding storefront product documents.
const DefaultIndexName = "storefront_products"

// indexMapping keeps slugs and spec values as keywords so listing filters
// are exact term matches, the same semantics as the SQL path.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "autocomplete_analyzer": {
          "type": "custom",
          "tokenizer": "autocomplete_tokenizer",
          "filter": ["lowercase"]
        }
      },
      "tokenizer": {
        "autocomplete_tokenizer": {
          "type": "edge_ngram",
          "min_gram": 2,
          "max_gram": 20,
          "token_chars": ["letter", "digit"]
        }
      }
    }
  },
  "mappings": {
    "dynamic_templates": [
      { "specs_as_keywords": { "path_match": "specs.*", "mapping": { "type": "keyword" } } }
    ],
    "properties": {
      "id":                   { "type": "keyword" },
      "name":                 { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 }, "autocomplete": { "type": "text", "analyzer": "autocomplete_analyzer", "search_analyzer": "standard" } } },
      "slug":                 { "type": "keyword" },
      "description":          { "type": "text" },
      "status":               { "type": "keyword" },
      "price":                { "type": "long" },
      "currency":             { "type": "keyword" },
      "image":                { "type": "keyword", "index": false },
      "category_id":          { "type": "keyword" },
      "category_slug":        { "type": "keyword" },
      "parent_category_slug": { "type": "keyword" },
      "brand_id":             { "type": "keyword" },
      "brand_slug":           { "type": "keyword" },
      "brand_name":           { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "tags":                 { "type": "keyword" },
      "featured":             { "type": "boolean" },
      "rating":               { "type": "float" },
      "stock":                { "type": "integer" },
      "specs":                { "type": "object" },
      "variants":             { "type": "object", "enabled": false },
      "created_at":           { "type": "date" },
      "updated_at":           { "type": "date" }
    }
  }
}`
