package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pg-sharding/widecol/pkg"
	"github.com/pg-sharding/widecol/pkg/config"
	"github.com/pg-sharding/widecol/pkg/cql"
	"github.com/pg-sharding/widecol/pkg/models/index"
	"github.com/pg-sharding/widecol/pkg/models/kr"
	"github.com/pg-sharding/widecol/pkg/models/schema"
	"github.com/pg-sharding/widecol/pkg/models/token"
	"github.com/pg-sharding/widecol/pkg/restrictions"
	"github.com/pg-sharding/widecol/pkg/statistics"
	"github.com/pg-sharding/widecol/pkg/stmtcache"
	"github.com/pg-sharding/widecol/pkg/wclog"
	"github.com/pg-sharding/widecol/qdb"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	catalogPath string
	queryPath   string
)

var rootCmd = &cobra.Command{
	Use: "wcplan explain -c `config-path` --catalog `catalog-path` -q `query-path`",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of wcplan",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "widecol planner %s\n", pkg.WidecolVersionRevision)
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Print the ranges a query reads and the filtering it needs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultPlanner()
		if cfgPath != "" {
			rendered, err := config.LoadPlannerCfg(cfgPath)
			if err != nil {
				return err
			}
			cfg = *config.PlannerConfig()
			wclog.Zero.Debug().Str("config", rendered).Msg("wcplan: loaded config")
		}
		if cfg.LogFile != "" {
			wclog.ReloadLogger(cfg.LogFile)
		}
		if err := wclog.UpdateZeroLogLevel(cfg.LogLevel); err != nil {
			return err
		}
		if catalogPath != "" {
			cfg.Catalog.BackupPath = catalogPath
		}
		statistics.InitStatistics(cfg.TimeQuantiles)

		return explain(cmd.Context(), cmd.OutOrStdout(), &cfg, queryPath)
	},
}

func openCatalog(cfg *config.Planner) (qdb.QDB, error) {
	db, err := qdb.NewQDB(cfg.Catalog.Type, cfg.Catalog.EtcdAddr, cfg.Catalog.BackupPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s catalog", cfg.Catalog.Type)
	}
	return db, nil
}

func explain(ctx context.Context, out io.Writer, cfg *config.Planner, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	q, err := LoadQuery(path)
	if err != nil {
		return errors.Wrapf(err, "failed to load query %s", path)
	}
	where, err := q.Relations()
	if err != nil {
		return err
	}

	db, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	table, err := db.GetTable(ctx, q.Keyspace, q.Table)
	if err != nil {
		return err
	}
	s, err := schema.FromDB(table)
	if err != nil {
		return err
	}
	im := index.NewSecondaryIndexManager(s, db)
	if err := im.Reload(ctx); err != nil {
		return err
	}
	partitioner, err := token.PartitionerByName(cfg.Partitioner)
	if err != nil {
		return err
	}

	boundNames := cql.NewVariableSpecifications(0)
	cache := stmtcache.New(cfg.Tracing)
	tableID := qdb.TableID(s.Keyspace, s.Table)

	start := time.Now()
	p, err := cache.GetOrPrepare(ctx, path, func() (*restrictions.Prepared, error) {
		return restrictions.Prepare(s, im, where, boundNames,
			restrictions.WithPartitioner(partitioner),
			restrictions.WithMaxCartesianProduct(cfg.MaxCartesianProduct),
			restrictions.WithAllowLocalIndex(cfg.LocalIndexAllowed()))
	})
	if err != nil {
		return err
	}
	statistics.RecordTime(statistics.Prepare, tableID, start, time.Now())

	_, _ = fmt.Fprintf(out, "table: %s\n", tableID)
	_, _ = fmt.Fprintf(out, "restrictions: %s\n", p.String())
	_, _ = fmt.Fprintf(out, "need_filtering: %t\n", p.NeedFiltering())
	_, _ = fmt.Fprintf(out, "uses_indexing: %t\n", p.UsesIndexing())
	if idx, col := p.Index(); idx != nil {
		_, _ = fmt.Fprintf(out, "index: %s on %s\n", idx.Metadata().Name, col.Name)
	}
	if filtered := p.FilteredColumns(); len(filtered) > 0 {
		names := make([]string, 0, len(filtered))
		for _, c := range filtered {
			names = append(names, c.Name)
		}
		_, _ = fmt.Fprintf(out, "filtered: %s\n", strings.Join(names, ", "))
	}

	executions := q.Executions
	if len(executions) == 0 {
		executions = [][]string{{}}
	}
	for i, values := range executions {
		opts, err := cql.BindValuesFromStrings(boundNames, values)
		if err != nil {
			return err
		}
		start := time.Now()
		partitions, err := p.GetPartitionKeyRanges(opts)
		if err != nil {
			return err
		}
		clustering, err := p.GetClusteringBounds(opts)
		if err != nil {
			return err
		}
		statistics.RecordTime(statistics.Bind, tableID, start, time.Now())

		wclog.Zero.Debug().
			Int("execution", i).
			Int("partition ranges", len(partitions)).
			Int("clustering ranges", len(clustering)).
			Msg("wcplan: computed ranges")

		_, _ = fmt.Fprintf(out, "execution %d:\n", i)
		_, _ = fmt.Fprintf(out, "  partition ranges:\n")
		for _, r := range partitions {
			_, _ = fmt.Fprintf(out, "    %s\n", r)
		}
		_, _ = fmt.Fprintf(out, "  clustering ranges:\n")
		for _, r := range clustering {
			_, _ = fmt.Fprintf(out, "    %s\n", formatClustering(s, r))
		}
	}

	for _, quantile := range statistics.GetQuantiles() {
		_, _ = fmt.Fprintf(out, "prepare p%g: %.3fms, bind p%g: %.3fms\n",
			quantile*100, statistics.GetTimeQuantile(statistics.Prepare, quantile, tableID),
			quantile*100, statistics.GetTimeQuantile(statistics.Bind, quantile, tableID))
	}
	return nil
}

func formatClustering(s *schema.Schema, r *kr.ClusteringRange) string {
	ck := s.ClusteringKeyColumns()
	return r.Format(func(i int, b []byte) string {
		if i >= len(ck) {
			return fmt.Sprintf("%x", b)
		}
		return ck[i].Type.Underlying().ToString(b)
	})
}

func init() {
	explainCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	explainCmd.Flags().StringVar(&catalogPath, "catalog", "", "path to the catalog backup of the in-memory catalog")
	explainCmd.Flags().StringVarP(&queryPath, "query", "q", "", "path to the query description")
	_ = explainCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		wclog.Zero.Error().Err(err).Msg("")
		os.Exit(1)
	}
}

func main() {
	Execute()
}
