package service

import (
	"context"
	"strings"

	"ventarapida/internal/dto"
	"ventarapida/internal/model"
	"ventarapida/internal/repository"
	"ventarapida/internal/stock"

	"github.com/google/uuid"
)

type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, q string) ([]dto.ClienteResponse, error)
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{
		Nombre:        strings.TrimSpace(req.Nombre),
		Documento:     soloDigitos(req.Documento),
		Tipo:          req.Tipo,
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Telefono:      req.Telefono,
		Observaciones: req.Observaciones,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if esClaveDuplicada(err) {
			return nil, stock.ErrDocumentoDuplicado
		}
		return nil, err
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func (s *clienteService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if noEncontrado(err) {
			return nil, stock.ErrClienteNoEncontrado
		}
		return nil, err
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func (s *clienteService) Listar(ctx context.Context, q string) ([]dto.ClienteResponse, error) {
	clientes, err := s.repo.List(ctx, strings.TrimSpace(q))
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClienteResponse, len(clientes))
	for i := range clientes {
		out[i] = clienteToResponse(&clientes[i])
	}
	return out, nil
}

// soloDigitos normalizes CPF/CNPJ input so formatted and bare documents
// collide on the unique index.
func soloDigitos(doc string) string {
	var b strings.Builder
	for _, r := range doc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
