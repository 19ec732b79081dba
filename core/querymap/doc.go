// Package querymap converts queryMap XML files into JSON documents the cache can
// serve.
//
// A queryMap file holds named SQL queries:
//
//	<queryMap desc="Orders">
//	  <query id="B47SA508_1.select" desc="List orders"><![CDATA[
//	    SELECT * FROM orders
//	  ]]></query>
//	</queryMap>
//
// Each file becomes one object keyed by a module code, the lowercased first three
// characters of the file name, holding every query by id:
//
//	{
//	    "b47": {
//	        "B47SA508_1.select": {
//	            "id": "B47SA508_1.select",
//	            "desc": "List orders",
//	            "file_name": "B47SA508.glue_sql",
//	            "query_map_desc": "Orders",
//	            "query": "<![CDATA[\nSELECT * FROM orders\n         ]]>"
//	        }
//	    }
//	}
//
// Queries keep their document order. Loaded with namespace prefix "b47", a query is
// then found by its bare id.
package querymap
