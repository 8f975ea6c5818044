package convert_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/convert"
)

func TestCSVConverterParsesHeaderAndRows(t *testing.T) {
	c := convert.NewCSVConverter(convert.CSVOptions{HasHeader: true, TrimSpace: true})
	f, skipped, err := c.Convert(strings.NewReader("Id,Amount\n1, 10.50\n2, \n"))
	require.NoError(t, err)
	require.Equal(t, 0, skipped)
	require.Equal(t, []string{"Id", "Amount"}, f.Columns)
	require.Equal(t, 2, f.NumRows())
	require.Equal(t, "1", f.Rows[0][0])
	require.Nil(t, f.Rows[1][1])
}

func TestCSVConverterPreservesHeaderCasingAndSpacing(t *testing.T) {
	c := convert.NewCSVConverter(convert.CSVOptions{HasHeader: true})
	f, _, err := c.Convert(strings.NewReader("Dealer Code,Region Name\nA1,West\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"Dealer Code", "Region Name"}, f.Columns)
}

func TestCSVConverterStripsHeaderBOMWithoutRenaming(t *testing.T) {
	c := convert.NewCSVConverter(convert.CSVOptions{HasHeader: true})
	f, _, err := c.Convert(strings.NewReader("﻿Id,Amount\n1,2\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"Id", "Amount"}, f.Columns)
}

func TestCSVConverterSkipsWidthMismatchRows(t *testing.T) {
	c := convert.NewCSVConverter(convert.CSVOptions{HasHeader: true})
	f, skipped, err := c.Convert(strings.NewReader("a,b\n1,2\n1,2,3\n4,5\n"))
	require.NoError(t, err)
	require.Equal(t, 1, skipped)
	require.Equal(t, 2, f.NumRows())
}

func TestForFileResolvesBySuffix(t *testing.T) {
	c, err := convert.ForFile("tenants/demo/source_files/orders.csv")
	require.NoError(t, err)
	require.IsType(t, &convert.CSVConverter{}, c)
}

func TestForFileRejectsUnknownSuffix(t *testing.T) {
	_, err := convert.ForFile("orders.txt")
	require.Error(t, err)
}
