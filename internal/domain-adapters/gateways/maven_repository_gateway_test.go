package gateways

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces/gateways"
)

type repoStub struct {
	mu       sync.Mutex
	existing map[string]bool
	putCode  int
	puts     map[string]string
	users    []string
}

func (s *repoStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, _, _ := r.BasicAuth()
	s.users = append(s.users, user)

	switch r.Method {
	case http.MethodHead:
		if s.existing[r.URL.Path] {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case http.MethodPut:
		if s.putCode != 0 {
			w.WriteHeader(s.putCode)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if s.puts == nil {
			s.puts = make(map[string]string)
		}
		s.puts[r.URL.Path] = string(body)
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

const pomPath = "/releases/io/github/udlepsprog2/prog2-lib/1.0.0/prog2-lib-1.0.0.pom"

func TestMavenRepositoryGateway_Upload(t *testing.T) {
	stub := &repoStub{}
	server := httptest.NewServer(stub)
	defer server.Close()

	gw := NewMavenRepositoryGateway(server.URL+"/releases/", false, server.Client(), nil)
	deployment, err := gw.Upload(context.Background(), &gateways.UploadRequest{
		Artifacts:   uploadSet(t),
		Credentials: testCreds,
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	var paths []string
	for p := range stub.puts {
		paths = append(paths, strings.TrimPrefix(p, "/releases/io/github/udlepsprog2/prog2-lib/1.0.0/"))
	}
	sort.Strings(paths)
	want := []string{"prog2-lib-1.0.0.jar", "prog2-lib-1.0.0.jar.asc", "prog2-lib-1.0.0.jar.md5", "prog2-lib-1.0.0.pom"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("uploaded files mismatch (-want +got):\n%s", diff)
	}
	if stub.puts[pomPath] != "<project/>" {
		t.Errorf("POM body = %q", stub.puts[pomPath])
	}
	for _, u := range stub.users {
		if u != "alice" {
			t.Errorf("basic auth user = %q, want alice", u)
		}
	}
	if !deployment.Published || deployment.Files != 4 || deployment.Target != entities.TargetRepository {
		t.Errorf("Upload() deployment = %+v", deployment)
	}
}

func TestMavenRepositoryGateway_Upload_Conflict(t *testing.T) {
	stub := &repoStub{existing: map[string]bool{pomPath: true}}
	server := httptest.NewServer(stub)
	defer server.Close()

	_, err := NewMavenRepositoryGateway(server.URL+"/releases", false, server.Client(), nil).
		Upload(context.Background(), &gateways.UploadRequest{Artifacts: uploadSet(t), Credentials: testCreds})
	if !errors.Is(err, entities.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(stub.puts) != 0 {
		t.Error("nothing should be uploaded on conflict")
	}
}

func TestMavenRepositoryGateway_Upload_AllowOverwrite(t *testing.T) {
	stub := &repoStub{existing: map[string]bool{pomPath: true}}
	server := httptest.NewServer(stub)
	defer server.Close()

	_, err := NewMavenRepositoryGateway(server.URL+"/releases", true, server.Client(), nil).
		Upload(context.Background(), &gateways.UploadRequest{Artifacts: uploadSet(t), Credentials: testCreds})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(stub.puts) != 4 {
		t.Errorf("puts = %d, want 4", len(stub.puts))
	}
}

func TestMavenRepositoryGateway_Upload_ErrorMapping(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, entities.ErrAuthentication},
		{http.StatusForbidden, entities.ErrAuthentication},
		{http.StatusConflict, entities.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			server := httptest.NewServer(&repoStub{putCode: tt.code})
			defer server.Close()

			_, err := NewMavenRepositoryGateway(server.URL, false, server.Client(), nil).
				Upload(context.Background(), &gateways.UploadRequest{Artifacts: uploadSet(t), Credentials: testCreds})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Upload() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMavenRepositoryGateway_Upload_MissingCredentials(t *testing.T) {
	stub := &repoStub{}
	server := httptest.NewServer(stub)
	defer server.Close()

	_, err := NewMavenRepositoryGateway(server.URL, false, server.Client(), nil).
		Upload(context.Background(), &gateways.UploadRequest{Artifacts: uploadSet(t)})
	if !errors.Is(err, entities.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if len(stub.users) != 0 {
		t.Error("no request should be sent without credentials")
	}
}

func TestMavenRepositoryGateway_Exists(t *testing.T) {
	stub := &repoStub{existing: map[string]bool{pomPath: true}}
	server := httptest.NewServer(stub)
	defer server.Close()
	gw := NewMavenRepositoryGateway(server.URL+"/releases", false, server.Client(), nil)

	coords := entities.Coordinates{Group: "io.github.udlepsprog2", Artifact: "prog2-lib", Version: "1.0.0"}
	exists, err := gw.Exists(context.Background(), coords, gateways.Credentials{})
	if err != nil || !exists {
		t.Errorf("Exists(1.0.0) = %v, %v; want true", exists, err)
	}

	coords.Version = "2.0.0"
	exists, err = gw.Exists(context.Background(), coords, gateways.Credentials{})
	if err != nil || exists {
		t.Errorf("Exists(2.0.0) = %v, %v; want false", exists, err)
	}
}
