// Package schema is the storefront's read-only GraphQL catalogue.
package schema

import (
	"strconv"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/storefront/app/resources"
	"github.com/shashiranjanraj/storefront/app/services"
	gql "github.com/shashiranjanraj/storefront/pkg/graphql"
	"github.com/shashiranjanraj/storefront/pkg/resource"
)

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":             &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":           &graphql.Field{Type: graphql.String},
		"slug":           &graphql.Field{Type: graphql.String},
		"description":    &graphql.Field{Type: graphql.String},
		"price":          &graphql.Field{Type: graphql.Float},
		"current_price":  &graphql.Field{Type: graphql.Float},
		"category":       &graphql.Field{Type: graphql.String},
		"category_id":    &graphql.Field{Type: graphql.Int},
		"stock_quantity": &graphql.Field{Type: graphql.Int},
		"in_stock":       &graphql.Field{Type: graphql.Boolean},
		"image_url":      &graphql.Field{Type: graphql.String},
		"images":         &graphql.Field{Type: graphql.NewList(graphql.String)},
		"sizes":          &graphql.Field{Type: graphql.NewList(graphql.String)},
		"colors":         &graphql.Field{Type: graphql.NewList(graphql.String)},
		"material":       &graphql.Field{Type: graphql.String},
		"is_featured":    &graphql.Field{Type: graphql.Boolean},
	},
})

var categoryType *graphql.Object

// categoryType nests itself through subcategories, so it is built in init.
func init() {
	categoryType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Category",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
				"name":          &graphql.Field{Type: graphql.String},
				"slug":          &graphql.Field{Type: graphql.String},
				"description":   &graphql.Field{Type: graphql.String},
				"image_url":     &graphql.Field{Type: graphql.String},
				"product_count": &graphql.Field{Type: graphql.Int},
				"subcategories": &graphql.Field{Type: graphql.NewList(categoryType)},
			}
		}),
	})
}

// New builds the schema over catalog.
func New(catalog *services.CatalogService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String},
					"search":   &graphql.ArgumentConfig{Type: graphql.String},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					category, _ := p.Args["category"].(string)
					search, _ := p.Args["search"].(string)
					limit, _ := p.Args["limit"].(int)
					products, err := catalog.SearchProducts(p.Context, category, search, limit)
					if err != nil {
						return nil, err
					}
					return resource.Many(resources.Product, products), nil
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					raw, _ := p.Args["id"].(string)
					id, err := strconv.ParseUint(raw, 10, 64)
					if err != nil {
						return nil, nil
					}
					product, err := catalog.Product(p.Context, uint(id))
					if _, ok := services.AsError(err); ok {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return resources.Product(product), nil
				},
			},
			"categories": &graphql.Field{
				Type: graphql.NewList(categoryType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					tree, err := catalog.Categories(p.Context)
					if err != nil {
						return nil, err
					}
					return resource.Many(resources.CategoryTree, tree), nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}
