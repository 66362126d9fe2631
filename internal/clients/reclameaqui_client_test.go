package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func complaintBlock(title, description string) string {
	var sb strings.Builder
	sb.WriteString(`<div class="sc-1a6092-1">`)
	if title != "" {
		fmt.Fprintf(&sb, `<h4 data-testid="complaint-title"> %s </h4>`, title)
	}
	if description != "" {
		fmt.Fprintf(&sb, `<p data-testid="complaint-description">%s</p>`, description)
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

type listingServer struct {
	mu     sync.Mutex
	pages  map[string]string
	status map[string]int
	hits   []string
	agents []string
}

func (l *listingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	page := r.URL.Query().Get("pagina")
	l.hits = append(l.hits, page)
	l.agents = append(l.agents, r.UserAgent())
	if code, ok := l.status[page]; ok {
		w.WriteHeader(code)
		return
	}
	fmt.Fprintf(w, "<html><body>%s</body></html>", l.pages[page])
}

func newTestReclameAqui(t *testing.T, l *listingServer) (*ReclameAquiClient, string) {
	srv := httptest.NewServer(l)
	t.Cleanup(srv.Close)
	return NewReclameAquiClient(srv.Client(), 0), srv.URL + "/empresa/acme/"
}

func TestPageURL(t *testing.T) {
	assert.Equal(t, "https://www.reclameaqui.com.br/empresa/acme/lista-reclamacoes/?pagina=2",
		PageURL("https://www.reclameaqui.com.br/empresa/acme//", 2))
	assert.Equal(t, "https://www.reclameaqui.com.br/empresa/acme/lista-reclamacoes/?pagina=1",
		PageURL("https://www.reclameaqui.com.br/empresa/acme", 1))
}

func TestCollectComplaintsStopsOnEmptyPage(t *testing.T) {
	l := &listingServer{pages: map[string]string{
		"1": complaintBlock("Atraso", "Pedido não chegou") + complaintBlock("Cobrança", "Valor errado"),
		"2": complaintBlock("Defeito", "Veio quebrado"),
		"3": "<p>nenhuma reclamação</p>",
		"4": complaintBlock("Nunca", "requisitado"),
	}}
	rc, base := newTestReclameAqui(t, l)

	records, err := rc.CollectComplaints(context.Background(), base, 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, l.hits)
	require.Len(t, records, 3)
	assert.Equal(t, "Atraso - Pedido não chegou", records[0].Text)
	assert.Equal(t, "Defeito - Veio quebrado", records[2].Text)
	for _, r := range records {
		assert.Nil(t, r.Rating)
	}
	for _, agent := range l.agents {
		assert.Equal(t, BROWSER_USER_AGENT, agent)
	}
}

func TestCollectComplaintsDropsIncompleteBlocks(t *testing.T) {
	l := &listingServer{pages: map[string]string{
		"1": complaintBlock("Só título", "") + complaintBlock("", "Só descrição") + complaintBlock("Completo", "Com texto"),
	}}
	rc, base := newTestReclameAqui(t, l)

	records, err := rc.CollectComplaints(context.Background(), base, 1)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Completo - Com texto", records[0].Text)
}

func TestCollectComplaintsHonorsMaxPages(t *testing.T) {
	l := &listingServer{pages: map[string]string{
		"1": complaintBlock("A", "a"),
		"2": complaintBlock("B", "b"),
		"3": complaintBlock("C", "c"),
	}}
	rc, base := newTestReclameAqui(t, l)

	records, err := rc.CollectComplaints(context.Background(), base, 2)
	require.NoError(t, err)

	assert.Len(t, records, 2)
	assert.Equal(t, []string{"1", "2"}, l.hits)
}

func TestCollectComplaintsReturnsPartialRecordsOnError(t *testing.T) {
	l := &listingServer{
		pages:  map[string]string{"1": complaintBlock("A", "a")},
		status: map[string]int{"2": http.StatusInternalServerError},
	}
	rc, base := newTestReclameAqui(t, l)

	records, err := rc.CollectComplaints(context.Background(), base, 5)

	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Len(t, records, 1)
	assert.Equal(t, []string{"1", "2"}, l.hits)
}

func TestCollectComplaintsCustomSelectors(t *testing.T) {
	l := &listingServer{pages: map[string]string{
		"1": `<article class="item"><h2>Título</h2><span>Descrição</span></article>`,
	}}
	rc, base := newTestReclameAqui(t, l)
	rc.Selectors = ReclameAquiSelectors{Complaint: "article.item", Title: "h2", Description: "span"}

	records, err := rc.CollectComplaints(context.Background(), base, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Título - Descrição", records[0].Text)
}
