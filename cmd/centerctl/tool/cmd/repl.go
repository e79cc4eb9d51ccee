package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"center-lookup/internal/dataset"
	"center-lookup/internal/geoloc"
	"center-lookup/internal/proximity"
	"center-lookup/internal/refindex"
	"center-lookup/internal/session"
	"center-lookup/internal/store"
	"center-lookup/internal/utils"

	"github.com/spf13/cobra"
)

var (
	replSource string
	replGeoIP  string
)

// replCmd runs an interactive lookup session against the local snapshot
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "交互式查询：筛选、联想、分页、附近、NID",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ds, err := loadSnapshot(ctx, replSource)
		if err != nil {
			return err
		}
		var geo *geoloc.GeoIP
		if replGeoIP != "" {
			if geo, err = geoloc.OpenGeoIP(replGeoIP); err != nil {
				return err
			}
			defer geo.Close()
		}
		cfg := session.DefaultConfig()
		cfg.PageSize = utils.EnvInt("PAGE_SIZE", cfg.PageSize)
		cfg.SuggestLimit = utils.EnvInt("SUGGEST_LIMIT", cfg.SuggestLimit)
		cfg.NearestK = utils.EnvInt("NEAREST_K", cfg.NearestK)
		cfg.Debounce = time.Duration(utils.EnvInt("SUGGEST_DEBOUNCE_MS", 120)) * time.Millisecond
		return runREPL(ctx, refindex.FromDataset(ds), geo, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	replCmd.Flags().StringVar(&replSource, "source", "file", "数据来源：file（数据目录）或 postgres")
	replCmd.Flags().StringVar(&replGeoIP, "geoip", "", "GeoIP City mmdb 路径，启用 near-ip 命令")
	rootCmd.AddCommand(replCmd)
}

func loadSnapshot(ctx context.Context, source string) (*dataset.Dataset, error) {
	if source != "postgres" {
		return dataset.LoadDir(dataDir)
	}
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return store.AttachDB(db).LoadDataset(ctx)
}

const replHelp = `commands:
  division|district|upazila|constituency|union <id>   set a facet (0 clears)
  type MALE|FEMALE|BOTH|-                             voter type facet
  options                                             cascade options for the current facets
  q <text>        type into the search box (suggestions refresh after the debounce)
  suggest         refresh suggestions now
  down|up|esc     move suggestion focus / close suggestions
  enter           select the focused suggestion or search
  pick <n>        select suggestion n (1-based)
  search|more     filter now / load the next page
  near <lat> <lon>  nearest centers to a coordinate
  near-ip <ip>    nearest centers to a GeoIP-resolved address
  nid <nid> [yyyy-mm-dd]
  maps|reset|help|quit`

// console：串行化输出，防抖回调与命令循环共用
type console struct {
	mu sync.Mutex
	w  io.Writer
	ix *refindex.Index
}

func (c *console) printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, a...)
}

func (c *console) page(p session.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range p.Rows {
		loc := c.ix.Locate(r.Center)
		fmt.Fprintf(c.w, "  #%d %s | %s, %s | %s", r.Center.ID, dataset.DisplayName(r.Center.Name, r.Center.NameEn),
			loc.Upazila, loc.District, strings.Join(r.Center.AreaCodes, ","))
		if r.DistanceKm != nil {
			fmt.Fprintf(c.w, " | %.2f km", *r.DistanceKm)
		}
		if r.ShowMap {
			fmt.Fprintf(c.w, " | map %s", loc.Constituency)
		}
		fmt.Fprintln(c.w)
	}
	fmt.Fprintf(c.w, "total=%d remaining=%d nearby=%t\n", p.Total, p.Remaining, p.Nearby)
}

func (c *console) suggestions(items []*refindex.IndexedCenter, focus int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, it := range items {
		mark := " "
		if i == focus {
			mark = ">"
		}
		fmt.Fprintf(c.w, " %s%d. %s (%s)\n", mark, i+1, dataset.DisplayName(it.Name, it.NameEn), c.ix.SuggestionLabel(it))
	}
	if len(items) == 0 {
		fmt.Fprintln(c.w, "  (no suggestions)")
	}
}

// 文档注释：交互式会话循环
// 背景：逐行读取命令驱动一个会话，便于在没有前端的环境里验证筛选、联想与就近逻辑。
// 约束：输入结束或 quit 时返回；单条命令的错误只打印，不中断循环。
func runREPL(ctx context.Context, ix *refindex.Index, geo *geoloc.GeoIP, cfg session.Config, in io.Reader, out io.Writer) error {
	con := &console{w: out, ix: ix}
	cfg.OnRefresh = func(r session.Refresh) {
		con.suggestions(r.Suggestions, -1)
		con.page(r.Page)
	}
	s := session.New(ix, cfg)
	defer s.Close()
	con.page(s.Search())

	sc := bufio.NewScanner(in)
	for {
		con.printf("> ")
		if !sc.Scan() {
			con.printf("\n")
			return sc.Err()
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		if err := dispatch(ctx, s, con, geo, cmd, args); err != nil {
			con.printf("error: %v\n", err)
		}
	}
}

func intArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one numeric argument")
	}
	return strconv.Atoi(args[0])
}

func dispatch(ctx context.Context, s *session.Session, con *console, geo *geoloc.GeoIP, cmd string, args []string) error {
	setters := map[string]func(int) session.Page{
		"division":     s.SetDivision,
		"district":     s.SetDistrict,
		"upazila":      s.SetUpazila,
		"constituency": s.SetConstituency,
		"union":        s.SetUnion,
	}
	if set, ok := setters[cmd]; ok {
		id, err := intArg(args)
		if err != nil {
			return err
		}
		con.page(set(id))
		return nil
	}
	switch cmd {
	case "type":
		if len(args) != 1 {
			return errors.New("usage: type MALE|FEMALE|BOTH|-")
		}
		v := dataset.VoterType(strings.ToUpper(args[0]))
		if args[0] == "-" {
			v = ""
		} else if !v.Valid() {
			return fmt.Errorf("unknown voter type %q", args[0])
		}
		con.page(s.SetVoterType(v))
	case "options":
		c := s.Cascade()
		for _, lv := range []struct {
			name string
			opts []refindex.Option
		}{
			{"division", c.Divisions}, {"district", c.Districts}, {"upazila", c.Upazilas},
			{"constituency", c.Constituencies}, {"union", c.Unions},
		} {
			labels := make([]string, len(lv.opts))
			for i, o := range lv.opts {
				labels[i] = fmt.Sprintf("%d=%s", o.ID, o.Label)
			}
			con.printf("%s: %s\n", lv.name, strings.Join(labels, ", "))
		}
	case "q":
		s.Input(strings.Join(args, " "))
	case "suggest":
		r := s.RefreshSuggestions()
		con.suggestions(r.Suggestions, -1)
	case "down", "up":
		dir := 1
		if cmd == "up" {
			dir = -1
		}
		focus := s.MoveFocus(dir)
		con.suggestions(s.Suggestions().Items, focus)
	case "esc":
		s.Escape()
	case "enter":
		con.page(s.Enter())
	case "pick":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		items := s.Suggestions().Items
		if n < 1 || n > len(items) {
			return fmt.Errorf("no suggestion %d", n)
		}
		con.page(s.Select(items[n-1]))
	case "search":
		con.page(s.Search())
	case "more":
		con.page(s.LoadMore())
	case "near", "near-ip":
		var loc geoloc.Locator
		if cmd == "near" {
			if len(args) != 2 {
				return errors.New("usage: near <lat> <lon>")
			}
			lat, err1 := strconv.ParseFloat(args[0], 64)
			lon, err2 := strconv.ParseFloat(args[1], 64)
			if err := errors.Join(err1, err2); err != nil {
				return err
			}
			loc = geoloc.Static(proximity.Point{Lat: lat, Lon: lon})
		} else {
			if len(args) != 1 || geo == nil {
				return errors.New("usage: near-ip <ip> (requires --geoip)")
			}
			loc = geo.ForIP(net.ParseIP(args[0]))
		}
		p, err := s.Nearby(ctx, loc)
		switch {
		case errors.Is(err, proximity.ErrNoGeocoded):
			con.printf("no geocoded centers in the current results\n")
			return nil
		case errors.Is(err, proximity.ErrNoOrigin):
			con.printf("location unavailable\n")
			return nil
		case err != nil:
			return err
		}
		con.page(p)
	case "nid":
		if len(args) < 1 || len(args) > 2 {
			return errors.New("usage: nid <nid> [yyyy-mm-dd]")
		}
		dob := ""
		if len(args) == 2 {
			dob = args[1]
		}
		res, p, err := s.NIDLookup(args[0], dob)
		if err != nil {
			return err
		}
		con.printf("area code %s\n", res.AreaCode)
		con.page(p)
	case "maps":
		con.page(s.ToggleMap())
	case "reset":
		con.page(s.Reset())
	case "help":
		con.printf("%s\n", replHelp)
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}
