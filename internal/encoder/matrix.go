package encoder

// Matrix is a rectangular float64 feature table with a fixed column schema.
// It lives for the duration of one batch call and is never persisted.
type Matrix struct {
	columns  []string
	colIndex map[string]int
	rows     [][]float64
}

// NewMatrix allocates a rowCount x len(columns) matrix backed by one
// contiguous block, with rows sliced out of it.
func NewMatrix(rowCount int, columns []string) *Matrix {
	colCount := len(columns)

	colIndex := make(map[string]int, colCount)
	for i, name := range columns {
		colIndex[name] = i
	}

	rows := make([][]float64, rowCount)
	dataBlock := make([]float64, rowCount*colCount)
	for i := 0; i < rowCount; i++ {
		rows[i] = dataBlock[i*colCount : (i+1)*colCount]
	}

	return &Matrix{
		columns:  columns,
		colIndex: colIndex,
		rows:     rows,
	}
}

func (m *Matrix) RowCount() int {
	return len(m.rows)
}

func (m *Matrix) ColumnCount() int {
	return len(m.columns)
}

// Columns returns the column names in schema order.
func (m *Matrix) Columns() []string {
	return m.columns
}

// Row returns the backing slice for one row, in schema column order.
func (m *Matrix) Row(i int) []float64 {
	return m.rows[i]
}

func (m *Matrix) Set(rowIndex int, columnName string, value float64) {
	col, ok := m.colIndex[columnName]
	if !ok || rowIndex >= len(m.rows) {
		return
	}
	m.rows[rowIndex][col] = value
}

func (m *Matrix) Value(rowIndex int, columnName string) float64 {
	col, ok := m.colIndex[columnName]
	if !ok || rowIndex >= len(m.rows) {
		return 0
	}
	return m.rows[rowIndex][col]
}

// Column copies out the values of one column across all rows. Unknown
// columns yield all zeros.
func (m *Matrix) Column(columnName string) []float64 {
	values := make([]float64, len(m.rows))
	col, ok := m.colIndex[columnName]
	if !ok {
		return values
	}
	for i, row := range m.rows {
		values[i] = row[col]
	}
	return values
}
