package crm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/opsdesk/opsdesk/internal/instrumentation"
	"github.com/opsdesk/opsdesk/pkg"
)

type clientsRepo interface {
	Add(ctx context.Context, client *Client) (*Client, error)
	Get(ctx context.Context, id int) (*Client, error)
	List(ctx context.Context, params ListParams) (_ []Client, total int, err error)
	Update(ctx context.Context, client *Client) error
	Delete(ctx context.Context, id int) error
}

type sourcesRepo interface {
	Add(ctx context.Context, source *MarketingSource) (*MarketingSource, error)
	List(ctx context.Context) ([]MarketingSource, error)
}

type transactionsRepo interface {
	ListForClient(ctx context.Context, clientID int, params ListParams) (_ []Transaction, total int, err error)
}

type DeleteClientResponse struct {
	DeletedID int `json:"deletedId"`
}

type UpdateClientResponse struct {
	UpdatedID int `json:"updatedId"`
}

type ClientsPageResponse struct {
	Clients []Client `json:"clients"`
	Total   int      `json:"total"`
}

type TransactionsPageResponse struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
}

type Handler struct {
	clients      clientsRepo
	sources      sourcesRepo
	transactions transactionsRepo
	sourcesCache *SourcesCache
	instr        *instrumentation.Instrumentation
}

func NewHandler(
	clients clientsRepo,
	sources sourcesRepo,
	transactions transactionsRepo,
	instr *instrumentation.Instrumentation,
) *Handler {
	return &Handler{
		clients:      clients,
		sources:      sources,
		transactions: transactions,
		sourcesCache: NewSourcesCache(),
		instr:        instr,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	crmRouter := router.PathPrefix("/crm").Subrouter()

	crmRouter.HandleFunc("/clients", handler.handleAddClient).Methods("POST", "OPTIONS")
	crmRouter.HandleFunc("/clients", handler.handleUpdateClient).Methods("PUT", "OPTIONS")
	crmRouter.HandleFunc("/clients/page/{page}/size/{size}", handler.handleListClients).Methods("GET", "OPTIONS")
	crmRouter.HandleFunc("/clients/{id}", handler.handleGetClient).Methods("GET", "OPTIONS")
	crmRouter.HandleFunc("/clients/{id}", handler.handleDeleteClient).Methods("DELETE", "OPTIONS")
	crmRouter.HandleFunc("/clients/{id}/transactions/page/{page}/size/{size}", handler.handleListTransactions).Methods("GET", "OPTIONS")

	crmRouter.HandleFunc("/sources", handler.handleAddSource).Methods("POST", "OPTIONS")
	crmRouter.HandleFunc("/sources", handler.handleListSources).Methods("GET", "OPTIONS")
}

func (handler *Handler) handleAddClient(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var client Client
	if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
		log.Tracef("add client, unmarshal json params: %s", err)
		http.Error(w, "add client failed", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(client.Name) == "" {
		http.Error(w, "error, client name empty", http.StatusBadRequest)
		return
	}

	addedClient, err := handler.clients.Add(r.Context(), &client)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "error, unknown marketing source", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to add client [%s]: %s", client.Name, err)
		http.Error(w, "error, failed to add client", http.StatusInternalServerError)
		return
	}

	handler.instr.CounterClientsAdded.Inc()

	addedClientJson, err := json.Marshal(addedClient)
	if err != nil {
		log.Errorf("failed to marshal added client: %s", err)
		http.Error(w, "error, failed to add client", http.StatusInternalServerError)
		return
	}

	log.Debugf("new client added: %d", addedClient.ID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedClientJson, http.StatusCreated)
}

func (handler *Handler) handleGetClient(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := clientIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	client, err := handler.clients.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get client %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	clientJson, err := json.Marshal(client)
	if err != nil {
		log.Errorf("failed to marshal client: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, clientJson, http.StatusOK)
}

func (handler *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	params, err := listParamsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	clients, total, err := handler.clients.List(r.Context(), params)
	if err != nil {
		log.Errorf("list clients error: %s", err)
		http.Error(w, "failed to get clients", http.StatusInternalServerError)
		return
	}

	clientsPageResponse := ClientsPageResponse{
		Clients: clients,
		Total:   total,
	}
	clientsPageResponseJson, err := json.Marshal(clientsPageResponse)
	if err != nil {
		log.Errorf("marshal clients error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, clientsPageResponseJson, http.StatusOK)
}

func (handler *Handler) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var client Client
	if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
		log.Tracef("update client, unmarshal json params: %s", err)
		http.Error(w, "update client failed", http.StatusBadRequest)
		return
	}

	if client.ID <= 0 || strings.TrimSpace(client.Name) == "" {
		http.Error(w, "error, client id or name empty", http.StatusBadRequest)
		return
	}

	if err := handler.clients.Update(r.Context(), &client); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update client %d: %s", client.ID, err)
		http.Error(w, "error, failed to update client", http.StatusInternalServerError)
		return
	}

	updateRespJson, err := json.Marshal(UpdateClientResponse{
		UpdatedID: client.ID,
	})
	if err != nil {
		log.Errorf("failed to marshal update response: %s", err)
		http.Error(w, "failed to marshal update response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(updateRespJson))
}

func (handler *Handler) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := clientIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.clients.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			log.Debugf("client %d not found", id)
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete client %d: %s", id, err)
		http.Error(w, "client not deleted", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteClientResponse{
		DeletedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}

func (handler *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	clientID, err := clientIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params, err := listParamsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// make sure the client exists, an empty transaction page for an
	// unknown client would be misleading
	if _, err := handler.clients.Get(r.Context(), clientID); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get client %d: %s", clientID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	transactions, total, err := handler.transactions.ListForClient(r.Context(), clientID, params)
	if err != nil {
		log.Errorf("list transactions for client %d error: %s", clientID, err)
		http.Error(w, "failed to get transactions", http.StatusInternalServerError)
		return
	}

	txPageResponse := TransactionsPageResponse{
		Transactions: transactions,
		Total:        total,
	}
	txPageResponseJson, err := json.Marshal(txPageResponse)
	if err != nil {
		log.Errorf("marshal transactions error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, txPageResponseJson, http.StatusOK)
}

func (handler *Handler) handleAddSource(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var source MarketingSource
	if err := json.NewDecoder(r.Body).Decode(&source); err != nil {
		log.Tracef("add source, unmarshal json params: %s", err)
		http.Error(w, "add source failed", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(source.Name) == "" {
		http.Error(w, "error, source name empty", http.StatusBadRequest)
		return
	}

	addedSource, err := handler.sources.Add(r.Context(), &source)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			http.Error(w, "error, source already exists", http.StatusConflict)
			return
		}
		log.Errorf("failed to add source [%s]: %s", source.Name, err)
		http.Error(w, "error, failed to add source", http.StatusInternalServerError)
		return
	}

	handler.sourcesCache.Invalidate()

	addedSourceJson, err := json.Marshal(addedSource)
	if err != nil {
		log.Errorf("failed to marshal added source: %s", err)
		http.Error(w, "error, failed to add source", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedSourceJson, http.StatusCreated)
}

func (handler *Handler) handleListSources(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	sources, cached := handler.sourcesCache.Get()
	if !cached {
		var err error
		sources, err = handler.sources.List(r.Context())
		if err != nil {
			log.Errorf("list sources error: %s", err)
			http.Error(w, "failed to get sources", http.StatusInternalServerError)
			return
		}
		handler.sourcesCache.Set(sources)
	}

	if sources == nil {
		sources = []MarketingSource{}
	}

	sourcesJson, err := json.Marshal(sources)
	if err != nil {
		log.Errorf("marshal sources error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sourcesJson, http.StatusOK)
}

func clientIDFromRequest(r *http.Request) (int, error) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		return 0, errors.New("error, id empty")
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, errors.New("error, id NaN")
	}
	return id, nil
}

func listParamsFromRequest(r *http.Request) (ListParams, error) {
	vars := mux.Vars(r)
	page, err := strconv.Atoi(vars["page"])
	if err != nil {
		return ListParams{}, errors.New("parse form error, parameter <page>")
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil {
		return ListParams{}, errors.New("parse form error, parameter <size>")
	}
	if page < 1 {
		return ListParams{}, errors.New("invalid page (has to be non-zero value)")
	}
	if size < 1 {
		return ListParams{}, errors.New("invalid size (has to be non-zero value)")
	}
	return ListParams{
		Limit:  size,
		Offset: (page - 1) * size,
	}, nil
}
