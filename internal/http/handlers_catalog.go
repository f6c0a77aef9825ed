package http

import (
	"errors"
	"net/http"
	"strings"

	"scenplan/internal/core"
	"scenplan/internal/services"
)

// Products

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.repo.ListProducts(r.Context(), QueryBool(r, "only_active", false))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if products == nil {
		products = []core.Product{}
	}
	NewJSONResponse().Body(products).Write(w)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p core.Product
	if err := DecodeJSON(r, &p); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := p.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	created, err := s.repo.CreateProduct(r.Context(), p)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	p, err := s.repo.GetProduct(r.Context(), id)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(p).Write(w)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var p core.Product
	if err := DecodeJSON(r, &p); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p.ID = id
	if err := p.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	if err := s.repo.UpdateProduct(r.Context(), p); err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(p).Write(w)
}

// handleDeleteProduct deactivates rather than removes: BOQ rows keep
// their product references.
func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.repo.DeactivateProduct(r.Context(), id); err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// Resolvers

func (s *Server) handleBestPrice(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	entry, err := s.catalog.BestPrice(r.Context(), id, QueryString(r, "date"), QueryString(r, "term"))
	if errors.Is(err, services.ErrNoMatch) {
		NotFoundError(err.Error()).Write(w)
		return
	}
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(entry).Write(w)
}

func (s *Server) handleBestCost(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	entry, err := s.catalog.BestCost(r.Context(), id, QueryString(r, "date"))
	if errors.Is(err, services.ErrNoMatch) {
		NotFoundError(err.Error()).Write(w)
		return
	}
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(entry).Write(w)
}

// Price terms

func (s *Server) handleListPriceTerms(w http.ResponseWriter, r *http.Request) {
	terms, err := s.repo.ListPriceTerms(r.Context())
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if terms == nil {
		terms = []core.PriceTerm{}
	}
	NewJSONResponse().Body(terms).Write(w)
}

func (s *Server) handleCreatePriceTerm(w http.ResponseWriter, r *http.Request) {
	var t core.PriceTerm
	if err := DecodeJSON(r, &t); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if strings.TrimSpace(t.Code) == "" {
		UnprocessableEntityError(core.ErrEmptyCode.Error()).Write(w)
		return
	}

	created, err := s.repo.CreatePriceTerm(r.Context(), t)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

// Price books

func (s *Server) handleListPriceBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.repo.ListPriceBooks(r.Context())
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if books == nil {
		books = []core.PriceBook{}
	}
	NewJSONResponse().Body(books).Write(w)
}

func (s *Server) handleCreatePriceBook(w http.ResponseWriter, r *http.Request) {
	var b core.PriceBook
	if err := DecodeJSON(r, &b); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := b.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	created, err := s.repo.CreatePriceBook(r.Context(), b)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleCreatePriceBookEntry(w http.ResponseWriter, r *http.Request) {
	bookID, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var e core.PriceBookEntry
	if err := DecodeJSON(r, &e); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e.BookID = bookID
	if err := e.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	created, err := s.repo.CreatePriceBookEntry(r.Context(), e)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

// Cost books

func (s *Server) handleListCostBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.repo.ListCostBooks(r.Context())
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if books == nil {
		books = []core.CostBook{}
	}
	NewJSONResponse().Body(books).Write(w)
}

func (s *Server) handleCreateCostBook(w http.ResponseWriter, r *http.Request) {
	var b core.CostBook
	if err := DecodeJSON(r, &b); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := b.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	created, err := s.repo.CreateCostBook(r.Context(), b)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleCreateCostBookEntry(w http.ResponseWriter, r *http.Request) {
	bookID, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var e core.CostBookEntry
	if err := DecodeJSON(r, &e); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e.BookID = bookID
	if err := e.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	created, err := s.repo.CreateCostBookEntry(r.Context(), e)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}
