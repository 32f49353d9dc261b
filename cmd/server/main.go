// Command knotql-server is a thin JSON-over-HTTP front end to the knotql
// engine: a CORS-guarded mux exposing expression parsing, CozoScript
// parsing, single-algorithm execution, and concurrent multi-algorithm
// batch execution over tables loaded in the request body.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/knotql/knotql"
)

var allowedOrigins = []string{
	"http://localhost:5173",
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	slog.Warn("request failed", "error", err, "status", status)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleParse(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Expr string `json:"expr"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, oops.Code("BAD_REQUEST").Wrap(err))
		return
	}
	e := knotql.New()
	v, err := e.ParseExpression(body.Expr)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, oops.Code("PARSE_FAILED").Wrap(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"value": v.String()})
}

func handleScript(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Script string `json:"script"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, oops.Code("BAD_REQUEST").Wrap(err))
		return
	}
	e := knotql.New()
	script, err := e.ParseScript(body.Script)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, oops.Code("SCRIPT_PARSE_FAILED").Wrap(err))
		return
	}
	b, err := knotql.MarshalScriptJSON(script)
	if err != nil {
		writeError(w, http.StatusInternalServerError, oops.Code("SCRIPT_MARSHAL_FAILED").Wrap(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func handleAlgo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Algorithm string                     `json:"algorithm"`
		Table     struct {
			Name     string          `json:"name"`
			KeyArity int             `json:"key_arity"`
			Columns  []string        `json:"columns"`
			Rows     [][]json.Number `json:"rows"`
		} `json:"table"`
		Options map[string]json.Number `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, oops.Code("BAD_REQUEST").Wrap(err))
		return
	}

	e := knotql.New()
	info := knotql.TableInfo{Name: body.Table.Name, KeyArity: body.Table.KeyArity, Columns: body.Table.Columns}
	rows := make([]knotql.Tuple, len(body.Table.Rows))
	for i, row := range body.Table.Rows {
		tuple := make(knotql.Tuple, len(row))
		for j, cell := range row {
			v, err := e.ParseExpression(cell.String())
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, oops.Code("BAD_CELL").With("row", i).With("col", j).Wrap(err))
				return
			}
			tuple[j] = v
		}
		rows[i] = tuple
	}
	if err := e.CreateTable(info, rows); err != nil {
		writeError(w, http.StatusUnprocessableEntity, oops.Code("CREATE_TABLE_FAILED").Wrap(err))
		return
	}

	opts := map[string]knotql.Value{}
	for k, raw := range body.Options {
		v, err := e.ParseExpression(raw.String())
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, oops.Code("BAD_OPTION").With("option", k).Wrap(err))
			return
		}
		opts[k] = v
	}

	rels := []knotql.RelArg{knotql.FromTable(body.Table.Name)}

	res, err := e.RunAlgorithmResult(r.Context(), body.Algorithm, rels, opts)
	if err == nil {
		b, err := knotql.MarshalResultJSON(res)
		if err != nil {
			writeError(w, http.StatusInternalServerError, oops.Code("RESULT_MARSHAL_FAILED").Wrap(err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(b)
		return
	}
	if !knotql.IsNoTypedResult(err) {
		writeError(w, http.StatusUnprocessableEntity, oops.Code("ALGO_FAILED").With("algorithm", body.Algorithm).Wrap(err))
		return
	}

	ds, err := e.RunAlgorithm(r.Context(), body.Algorithm, rels, opts)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, oops.Code("ALGO_FAILED").With("algorithm", body.Algorithm).Wrap(err))
		return
	}
	it, err := ds.Iter(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, oops.Code("ITER_FAILED").Wrap(err))
		return
	}
	var out [][]string
	for it.Next() {
		tuple := it.Tuple()
		cells := make([]string, len(tuple))
		for i, v := range tuple {
			cells[i] = v.String()
		}
		out = append(out, cells)
	}
	if err := it.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, oops.Code("ITER_FAILED").Wrap(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": out})
}

// handleAlgoBatch runs a batch of algorithm calls concurrently via
// Engine.RunAlgorithms, each against its own table, and returns their
// combined MultiResult as one {kind:"multi", data:[...]} envelope.
func handleAlgoBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Calls []struct {
			Algorithm string `json:"algorithm"`
			Table     struct {
				Name     string          `json:"name"`
				KeyArity int             `json:"key_arity"`
				Columns  []string        `json:"columns"`
				Rows     [][]json.Number `json:"rows"`
			} `json:"table"`
			Options map[string]json.Number `json:"options"`
		} `json:"calls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, oops.Code("BAD_REQUEST").Wrap(err))
		return
	}

	e := knotql.New()
	calls := make([]knotql.AlgorithmCall, len(body.Calls))
	for i, c := range body.Calls {
		info := knotql.TableInfo{Name: c.Table.Name, KeyArity: c.Table.KeyArity, Columns: c.Table.Columns}
		rows := make([]knotql.Tuple, len(c.Table.Rows))
		for j, row := range c.Table.Rows {
			tuple := make(knotql.Tuple, len(row))
			for k, cell := range row {
				v, err := e.ParseExpression(cell.String())
				if err != nil {
					writeError(w, http.StatusUnprocessableEntity, oops.Code("BAD_CELL").With("call", i).With("row", j).With("col", k).Wrap(err))
					return
				}
				tuple[k] = v
			}
			rows[j] = tuple
		}
		if err := e.CreateTable(info, rows); err != nil {
			writeError(w, http.StatusUnprocessableEntity, oops.Code("CREATE_TABLE_FAILED").With("call", i).Wrap(err))
			return
		}

		opts := map[string]knotql.Value{}
		for k, raw := range c.Options {
			v, err := e.ParseExpression(raw.String())
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, oops.Code("BAD_OPTION").With("call", i).With("option", k).Wrap(err))
				return
			}
			opts[k] = v
		}

		calls[i] = knotql.AlgorithmCall{
			Name: c.Algorithm,
			Rels: []knotql.RelArg{knotql.FromTable(c.Table.Name)},
			Opts: opts,
		}
	}

	multi, err := e.RunAlgorithms(r.Context(), calls)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, oops.Code("ALGOS_FAILED").Wrap(err))
		return
	}
	b, err := knotql.MarshalResultJSON(multi)
	if err != nil {
		writeError(w, http.StatusInternalServerError, oops.Code("RESULT_MARSHAL_FAILED").Wrap(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/parse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, oops.Code("METHOD_NOT_ALLOWED").Errorf("method not allowed"))
			return
		}
		handleParse(w, r)
	})
	mux.HandleFunc("/script", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, oops.Code("METHOD_NOT_ALLOWED").Errorf("method not allowed"))
			return
		}
		handleScript(w, r)
	})
	mux.HandleFunc("/algo", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, oops.Code("METHOD_NOT_ALLOWED").Errorf("method not allowed"))
			return
		}
		handleAlgo(w, r)
	})
	mux.HandleFunc("/algos", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, oops.Code("METHOD_NOT_ALLOWED").Errorf("method not allowed"))
			return
		}
		handleAlgoBatch(w, r)
	})

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("knotql server listening", "addr", addr)
	if err := http.ListenAndServe(addr, corsMiddleware(mux)); err != nil {
		slog.Error("server error", "error", err)
	}
}
