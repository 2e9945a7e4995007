package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/ammar0144/recordsapi/pkg/db"
	"github.com/ammar0144/recordsapi/pkg/query"
)

// Options restricts what a list request may touch. Empty lists impose no
// restriction beyond identifier safety.
type Options struct {
	// Resource is the API resource name, used for cache invalidation.
	// Defaults to the table name.
	Resource string

	// Columns are selected by list and detail reads. Defaults to "*".
	Columns []string

	// Filterable and Sortable name the columns a request may use. Bare names
	// are columns of the base table; columns of joined tables are written
	// table.column and only apply when the request joins that table.
	Filterable []string
	Sortable   []string
	Joinable   []string

	// DefaultSort applies when a request names no sort column
	DefaultSort query.Sort
}

// GenericRepository serves one entity type. Reads are built with the query
// package and run through a Querier; writes go through GORM and clear the
// cached reads of the resource afterwards.
type GenericRepository[T Entity] struct {
	querier     Querier
	db          *gorm.DB
	invalidator Invalidator
	logger      *slog.Logger

	tableName  string
	primaryKey string
	createOnly []string // columns Update never writes, such as created_at
	opts       Options
}

// NewGenericRepository creates a repository for T on manager. inv may be nil
// when responses are not cached.
func NewGenericRepository[T Entity](manager *db.Manager, inv Invalidator, opts Options, logger *slog.Logger) *GenericRepository[T] {
	return newRepository[T](manager, manager.DB(), inv, opts, logger)
}

func newRepository[T Entity](q Querier, gormDB *gorm.DB, inv Invalidator, opts Options, logger *slog.Logger) *GenericRepository[T] {
	if logger == nil {
		logger = slog.Default()
	}

	entityType := reflect.TypeOf((*T)(nil)).Elem()
	var model any
	if entityType.Kind() == reflect.Ptr {
		model = reflect.New(entityType.Elem()).Interface()
	} else {
		model = reflect.New(entityType).Interface()
	}
	ent, ok := model.(Entity)
	if !ok {
		panic(fmt.Sprintf("entity type %v does not implement repository.Entity", entityType))
	}
	tableName := ent.TableName()
	if tableName == "" {
		panic(fmt.Sprintf("entity type %v returned empty TableName()", entityType))
	}

	if opts.Resource == "" {
		opts.Resource = tableName
	}
	if len(opts.Columns) == 0 {
		opts.Columns = []string{"*"}
	}

	primaryKey, createOnly := schemaColumns(gormDB, model)
	if primaryKey == "" {
		primaryKey = "id"
	}

	return &GenericRepository[T]{
		querier:     q,
		db:          gormDB,
		invalidator: inv,
		logger:      logger.With("resource", opts.Resource),
		tableName:   tableName,
		primaryKey:  primaryKey,
		createOnly:  createOnly,
		opts:        opts,
	}
}

// Resource implements Repository
func (r *GenericRepository[T]) Resource() string {
	return r.opts.Resource
}

// TableName returns the table the repository reads from
func (r *GenericRepository[T]) TableName() string {
	return r.tableName
}

// ============================================================================
// READ OPERATIONS
// ============================================================================

// FindByID returns the row whose primary key equals id, or ErrNotFound
func (r *GenericRepository[T]) FindByID(ctx context.Context, id any) (*T, error) {
	if id == nil {
		return nil, fmt.Errorf("id cannot be nil")
	}

	stmt, err := query.NewBuilder(r.tableName).
		Select(r.opts.Columns...).
		Where(query.Filters{}.Add(r.tableName+"."+r.primaryKey, query.Eq(id))).
		Paginate(query.Pagination{Page: 1, Limit: 1}).
		Build()
	if err != nil {
		return nil, err
	}

	var rows []T
	if err := r.querier.Select(ctx, stmt, &rows); err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// List returns one page of rows matching req together with the total number
// of matching rows.
func (r *GenericRepository[T]) List(ctx context.Context, req query.Request) (Page[T], error) {
	b, err := r.listBuilder(req)
	if err != nil {
		return Page[T]{}, err
	}

	stmt, err := b.Build()
	if err != nil {
		return Page[T]{}, err
	}
	countStmt, err := b.BuildCount()
	if err != nil {
		return Page[T]{}, err
	}

	total, err := r.querier.Count(ctx, countStmt)
	if err != nil {
		return Page[T]{}, fmt.Errorf("database error: %w", err)
	}

	items := make([]T, 0)
	if total > 0 {
		if err := r.querier.Select(ctx, stmt, &items); err != nil {
			return Page[T]{}, fmt.Errorf("database error: %w", err)
		}
	}

	page, limit, _ := req.Pagination.Normalize()
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// listBuilder checks req against the resource options and prepares the
// statement builder. Bare column names are qualified with the base table so
// they stay unambiguous once tables are joined; qualified names must refer to
// the base table or to a table joined by this request.
func (r *GenericRepository[T]) listBuilder(req query.Request) (*query.Builder, error) {
	for _, j := range req.Joins {
		if !allowed(r.opts.Joinable, j.Table) {
			return nil, fmt.Errorf("%w: %q", ErrJoinNotAllowed, j.Table)
		}
	}
	scope := r.tableScope(req.Joins)

	for _, j := range req.Joins {
		if j.On == nil {
			continue // reported by the builder
		}
		for _, col := range []string{j.On.Base, j.On.Target} {
			if col == "" {
				continue
			}
			if ref, _, ok := strings.Cut(col, "."); !ok || scope[ref] == "" {
				return nil, fmt.Errorf("%w: join condition column %q must be qualified with a table of this request", ErrJoinNotAllowed, col)
			}
		}
	}

	filters := make(query.Filters, 0, len(req.Filters))
	for _, f := range req.Filters {
		col, err := r.scopedColumn(f.Column, scope, r.opts.Filterable)
		if err != nil {
			return nil, fmt.Errorf("filter on %q: %w", f.Column, err)
		}
		filters = filters.Add(col, f.Value)
	}

	sort := req.Sort
	if sort.Column == "" {
		sort = r.opts.DefaultSort
	}
	if sort.Column != "" {
		col, err := r.scopedColumn(sort.Column, scope, r.opts.Sortable)
		if err != nil {
			return nil, fmt.Errorf("sort by %q: %w", sort.Column, err)
		}
		sort.Column = col
	}

	return query.NewBuilder(r.tableName).
		Select(r.opts.Columns...).
		Join(req.Joins...).
		Where(filters).
		OrderBy(sort.Column, sort.Order).
		Paginate(req.Pagination), nil
}

// tableScope maps every table name or alias a request may reference to the
// table it stands for.
func (r *GenericRepository[T]) tableScope(joins []query.Join) map[string]string {
	scope := map[string]string{r.tableName: r.tableName}
	for _, j := range joins {
		if j.Alias != "" {
			scope[j.Alias] = j.Table
		} else {
			scope[j.Table] = j.Table
		}
	}
	return scope
}

// scopedColumn qualifies column with the base table when it is bare, then
// checks that its table is in scope and that it is on the allow-list. Allow-list
// entries name tables, not aliases.
func (r *GenericRepository[T]) scopedColumn(column string, scope map[string]string, allowList []string) (string, error) {
	qualified := r.qualify(column)
	ref, name, _ := strings.Cut(qualified, ".")
	table, ok := scope[ref]
	if !ok {
		return "", fmt.Errorf("%w: table %q is not part of this request", ErrColumnNotAllowed, ref)
	}
	if len(allowList) > 0 {
		canonical := table + "." + name
		if !slices.ContainsFunc(allowList, func(a string) bool { return r.qualify(a) == canonical }) {
			return "", ErrColumnNotAllowed
		}
	}
	return qualified, nil
}

func (r *GenericRepository[T]) qualify(column string) string {
	if strings.Contains(column, ".") {
		return column
	}
	return r.tableName + "." + column
}

func allowed(list []string, name string) bool {
	return len(list) == 0 || slices.Contains(list, name)
}

// ============================================================================
// WRITE OPERATIONS - Cache Invalidation
// ============================================================================

// Create inserts entity and invalidates cached reads
func (r *GenericRepository[T]) Create(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	r.invalidate(ctx, *entity)
	return nil
}

// Update saves every field of entity except its creation timestamp and
// invalidates cached reads
func (r *GenericRepository[T]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	tx := r.db.WithContext(ctx)
	if len(r.createOnly) > 0 {
		tx = tx.Omit(r.createOnly...)
	}
	if err := tx.Save(entity).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	r.invalidate(ctx, *entity)
	return nil
}

// Delete removes the row with primary key id. It returns ErrNotFound when no
// row was deleted.
func (r *GenericRepository[T]) Delete(ctx context.Context, id any) error {
	if id == nil {
		return fmt.Errorf("id cannot be nil")
	}
	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	// primary key lookup keeps id out of the statement text
	var entity T
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("database error while finding entity to delete: %w", err)
	}

	if err := r.db.WithContext(ctx).Delete(new(T), id).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	r.invalidate(ctx, entity)
	return nil
}

func (r *GenericRepository[T]) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m, ok := r.querier.(*db.Manager); ok && m.Config() != nil && m.Config().QueryTimeout > 0 {
		return context.WithTimeout(ctx, m.Config().QueryTimeout)
	}
	return ctx, func() {}
}

// invalidate clears the cached reads of the resource and of every resource
// the entity declares itself related to. Best effort.
func (r *GenericRepository[T]) invalidate(ctx context.Context, entity T) {
	if r.invalidator == nil {
		return
	}

	resources := []string{r.opts.Resource}
	rel, ok := any(entity).(RelationshipAware)
	if !ok {
		rel, ok = any(&entity).(RelationshipAware)
	}
	if ok {
		for _, res := range rel.RelatedResources() {
			if !slices.Contains(resources, res) {
				resources = append(resources, res)
			}
		}
	}

	for _, res := range resources {
		n := r.invalidator.ClearForResource(ctx, res)
		r.logger.Debug("cleared cached reads", "target", res, "keys", n, "id", entity.GetPrimaryKeyValue())
	}
}

// schemaColumns reads the primary key column and the insert-only timestamp
// columns of model from its GORM schema.
func schemaColumns(gormDB *gorm.DB, model any) (primaryKey string, createOnly []string) {
	if gormDB == nil {
		return "", nil
	}
	stmt := &gorm.Statement{DB: gormDB}
	if err := stmt.Parse(model); err != nil || stmt.Schema == nil {
		return "", nil
	}
	if len(stmt.Schema.PrimaryFields) > 0 && stmt.Schema.PrimaryFields[0] != nil {
		primaryKey = stmt.Schema.PrimaryFields[0].DBName
	}
	for _, f := range stmt.Schema.Fields {
		if f.AutoCreateTime > 0 && f.DBName != "" {
			createOnly = append(createOnly, f.DBName)
		}
	}
	return primaryKey, createOnly
}
