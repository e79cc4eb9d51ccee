// 包 session：单个用户的查询会话（筛选条件、联想、分页、就近、地图开关）
package session

import (
	"errors"
	"sync"
	"time"

	"center-lookup/internal/dataset"
	"center-lookup/internal/debounce"
	"center-lookup/internal/geoloc"
	"center-lookup/internal/logger"
	"center-lookup/internal/pager"
	"center-lookup/internal/proximity"
	"center-lookup/internal/refindex"
	"center-lookup/internal/search"
)

var (
	// ErrLocating：已有一个定位请求在进行中
	ErrLocating = errors.New("session: geolocation already in flight")
	// ErrSuperseded：定位期间筛选条件已变化，结果被丢弃
	ErrSuperseded = errors.New("session: state changed while locating")
)

// Config：会话参数
type Config struct {
	PageSize         int
	SuggestLimit     int
	NearestK         int
	Debounce         time.Duration
	GeolocateTimeout time.Duration
	ShowMaps         bool
	// OnRefresh：防抖后的联想刷新完成时回调（在定时器协程中调用，不持有会话锁）
	OnRefresh func(Refresh)
}

func DefaultConfig() Config {
	return Config{
		PageSize:         pager.DefaultPageSize,
		SuggestLimit:     search.DefaultSuggestLimit,
		NearestK:         proximity.DefaultK,
		Debounce:         debounce.DefaultDelay,
		GeolocateTimeout: geoloc.DefaultTimeout,
		ShowMaps:         true,
	}
}

// Row：已展示的一条结果
type Row struct {
	Center *refindex.IndexedCenter
	// DistanceKm 仅在就近结果中存在
	DistanceKm *float64
	ShowMap    bool
}

// Page：一次展示（首屏或加载更多）
type Page struct {
	Rows      []Row
	Total     int
	Remaining int
	Nearby    bool
}

// Refresh：防抖联想刷新的产出
type Refresh struct {
	Suggestions []*refindex.IndexedCenter
	Page        Page
}

type entry struct {
	c    *refindex.IndexedCenter
	dist *float64
}

// 文档注释：查询会话
// 背景：取代全局界面状态；所有引擎调用都显式传入本会话的条件与快照。参考索引只读共享，会话之间互不影响。
// 约束：方法均持锁串行执行，可被防抖定时器协程并发调用；定位请求期间不持锁，同一时刻至多一个。
// 任何筛选条件或查询文本变化都会丢弃就近结果并回到标准筛选；加载更多在就近结果内继续分页。
type Session struct {
	mu  sync.Mutex
	ix  *refindex.Index
	cfg Config
	deb *debounce.Debouncer

	facets search.Facets
	query  string
	sugg   search.Suggestions

	filtered []*refindex.IndexedCenter
	pg       *pager.Pager[entry]
	maps     *pager.MapTracker
	nearby   bool

	// gen 在每次筛选条件变化时递增，用于识别过期的定位结果
	gen      uint64
	locating bool
	// inputSeq 在输入、选中、回车、重置时递增，防止已在排队的联想刷新覆盖之后的操作
	inputSeq uint64
}

// New：创建会话并执行一次空条件筛选
func New(ix *refindex.Index, cfg Config) *Session {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.SuggestLimit <= 0 {
		cfg.SuggestLimit = def.SuggestLimit
	}
	if cfg.NearestK <= 0 {
		cfg.NearestK = def.NearestK
	}
	if cfg.GeolocateTimeout <= 0 {
		cfg.GeolocateTimeout = def.GeolocateTimeout
	}
	s := &Session{
		ix:   ix,
		cfg:  cfg,
		deb:  debounce.New(cfg.Debounce),
		sugg: search.NewSuggestions(),
		pg:   pager.New[entry](nil),
		maps: pager.NewMapTracker(cfg.ShowMaps),
	}
	s.mu.Lock()
	s.filterLocked()
	s.mu.Unlock()
	return s
}

// Close：停止防抖器，之后的输入不再触发联想
func (s *Session) Close() { s.deb.Stop() }

// Facets：当前筛选条件
func (s *Session) Facets() search.Facets {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facets
}

// Query：当前查询文本（原始输入）
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Suggestions：当前联想候选与焦点
func (s *Session) Suggestions() search.Suggestions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return search.Suggestions{Items: append([]*refindex.IndexedCenter(nil), s.sugg.Items...), Focus: s.sugg.Focus}
}

// NearbyActive：当前结果是否为就近结果
func (s *Session) NearbyActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nearby
}

// MapsEnabled：地图展示开关
func (s *Session) MapsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maps.Enabled()
}

// filterLocked：按当前条件重新筛选并从第一页开始展示
func (s *Session) filterLocked() Page {
	s.gen++
	s.nearby = false
	s.filtered = search.Filter(s.ix.Centers, s.facets, s.query)
	entries := make([]entry, len(s.filtered))
	for i, c := range s.filtered {
		entries[i] = entry{c: c}
	}
	return s.restartLocked(entries)
}

func (s *Session) restartLocked(entries []entry) Page {
	s.pg.Reset(entries)
	s.maps.Reset()
	return s.nextLocked()
}

func (s *Session) nextLocked() Page {
	items := s.pg.NextPage(s.cfg.PageSize)
	rows := make([]Row, 0, len(items))
	for _, e := range items {
		rows = append(rows, Row{
			Center:     e.c,
			DistanceKm: e.dist,
			ShowMap:    s.maps.Show(e.c.ConstituencyID, s.ix.HasMap(s.ix.ConstituencyByID[e.c.ConstituencyID])),
		})
	}
	return Page{Rows: rows, Total: s.pg.Total(), Remaining: s.pg.Remaining(), Nearby: s.nearby}
}

// SetDivision：切换行政区，清空县及以下
func (s *Session) SetDivision(id int) Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facets.DivisionID = id
	s.facets.DistrictID, s.facets.UpazilaID, s.facets.ConstituencyID, s.facets.UnionID = 0, 0, 0, 0
	return s.filterLocked()
}

// SetDistrict：切换县，清空乡、选区、union
func (s *Session) SetDistrict(id int) Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facets.DistrictID = id
	s.facets.UpazilaID, s.facets.ConstituencyID, s.facets.UnionID = 0, 0, 0
	return s.filterLocked()
}

// SetUpazila：切换乡，清空 union
func (s *Session) SetUpazila(id int) Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facets.UpazilaID = id
	s.facets.UnionID = 0
	return s.filterLocked()
}

func (s *Session) SetConstituency(id int) Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facets.ConstituencyID = id
	return s.filterLocked()
}

func (s *Session) SetUnion(id int) Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facets.UnionID = id
	return s.filterLocked()
}

// SetVoterType：空串表示不限
func (s *Session) SetVoterType(v dataset.VoterType) Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facets.VoterType = v
	return s.filterLocked()
}

// Cascade：当前条件下各级下拉框的可选项
type Cascade struct {
	Divisions      []refindex.Option
	Districts      []refindex.Option
	Upazilas       []refindex.Option
	Constituencies []refindex.Option
	Unions         []refindex.Option
}

func (s *Session) Cascade() Cascade {
	f := s.Facets()
	return Cascade{
		Divisions:      s.ix.DivisionOptions(),
		Districts:      s.ix.DistrictOptions(f.DivisionID),
		Upazilas:       s.ix.UpazilaOptions(f.DistrictID),
		Constituencies: s.ix.ConstituencyOptions(f.DistrictID),
		Unions:         s.ix.UnionOptions(f.UpazilaID),
	}
}

// 文档注释：文本输入
// 背景：每次按键都清除已固定的中心并重新安排联想刷新；静默期内只有最后一次输入生效。
// 约束：不立即筛选，刷新时才筛选。
func (s *Session) Input(text string) {
	s.mu.Lock()
	s.query = text
	s.facets.PinnedCenterID = 0
	s.inputSeq++
	seq := s.inputSeq
	s.mu.Unlock()
	s.deb.Trigger(func() {
		s.mu.Lock()
		if seq != s.inputSeq {
			s.mu.Unlock()
			return
		}
		r := s.refreshLocked()
		s.mu.Unlock()
		if s.cfg.OnRefresh != nil {
			s.cfg.OnRefresh(r)
		}
	})
}

// RefreshSuggestions：立即计算联想并重新筛选（防抖回调调用；测试中可直接调用）
func (s *Session) RefreshSuggestions() Refresh {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked()
}

func (s *Session) refreshLocked() Refresh {
	items := search.Suggest(s.ix.Centers, s.facets, s.query, s.cfg.SuggestLimit)
	if len(items) == 0 {
		s.sugg.Clear()
	} else {
		s.sugg.Set(items)
	}
	page := s.filterLocked()
	return Refresh{Suggestions: append([]*refindex.IndexedCenter(nil), s.sugg.Items...), Page: page}
}

// MoveFocus：键盘上下移动联想焦点，返回新焦点
func (s *Session) MoveFocus(dir int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sugg.Move(dir)
	return s.sugg.Focus
}

// Escape：关闭联想
func (s *Session) Escape() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sugg.Clear()
}

// Enter：有焦点时选中该项；否则关闭联想并按当前条件筛选
func (s *Session) Enter() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deb.Cancel()
	s.inputSeq++
	if c, ok := s.sugg.Focused(); ok {
		return s.selectLocked(c)
	}
	s.sugg.Clear()
	return s.filterLocked()
}

// Select：选中联想项，结果固定为该中心，查询文本替换为其展示名
func (s *Session) Select(c *refindex.IndexedCenter) Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deb.Cancel()
	s.inputSeq++
	return s.selectLocked(c)
}

func (s *Session) selectLocked(c *refindex.IndexedCenter) Page {
	s.facets.PinnedCenterID = c.ID
	s.query = dataset.DisplayName(c.Name, c.NameEn)
	s.sugg.Clear()
	return s.filterLocked()
}

// Search：按当前条件筛选（“搜索”按钮）
func (s *Session) Search() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterLocked()
}

// LoadMore：继续展示下一页；耗尽后返回空页
func (s *Session) LoadMore() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked()
}

// ToggleMap：切换地图展示并从第一页重新展示当前结果
func (s *Session) ToggleMap() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maps.SetEnabled(!s.maps.Enabled())
	return s.restartLocked(s.pg.Window(0, s.pg.Total()))
}

// Reset：清空全部条件、查询与联想并重新筛选；地图开关保持不变
func (s *Session) Reset() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deb.Cancel()
	s.inputSeq++
	s.facets = search.Facets{}
	s.query = ""
	s.sugg.Clear()
	logger.For("session").Debug("session_reset")
	return s.filterLocked()
}
