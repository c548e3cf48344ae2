// Package chart turns column-oriented JSON data into chart figures.
//
// Formatted data is a JSON object whose keys are column names and whose
// values hold the column's cells:
//
//	{
//	  "col_names": ["Year", "Revenue"],
//	  "Year":    {"values": ["2021", "2022"]},
//	  "Revenue": {"values": ["1,200", "1,450"]}
//	}
//
// [Render] never fails. Data that cannot be charted produces a placeholder
// figure carrying an explanatory annotation instead of traces.
package chart
