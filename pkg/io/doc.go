// Package io provides JSON import and export for reliability dependence
// graphs, analysis results and configuration lists.
//
// # RDG Format
//
// A graph file lists its components, each with a presence condition, a
// Markov chain model and the IDs of its dependencies:
//
//	{
//	  "root": "App",
//	  "featureModel": "Root && (Sensor || Memory)",
//	  "nodes": [
//	    {
//	      "id": "App",
//	      "presence": "Root",
//	      "dependencies": ["Sensor"],
//	      "model": {
//	        "states": [
//	          {"label": "init", "kind": "initial"},
//	          {"label": "call"},
//	          {"label": "success", "kind": "success"},
//	          {"label": "error", "kind": "error"}
//	        ],
//	        "transitions": [
//	          {"from": "init", "to": "call", "probability": "0.99"},
//	          {"from": "init", "to": "error", "probability": "0.01"}
//	        ],
//	        "interfaces": [
//	          {"dependency": "Sensor", "from": "call", "success": "success", "error": "error"}
//	        ]
//	      }
//	    },
//	    {"id": "Sensor", "presence": "Sensor"}
//	  ]
//	}
//
// States are referenced by label, so labels must be unique within a model.
// An interface expands to the transitions from --r_dep--> success and
// from --(1 - r_dep)--> error; its dependency must be listed in the node's
// dependencies. Models listed under "models" are shared by every node naming
// them in "modelRef". A node without a model gets the trivial model, and a
// node without a presence condition is mandatory. The root defaults to the
// first node.
//
// [ReadRDG] rejects duplicate IDs, unknown dependencies and malformed models.
// Cycles are kept so that the analysis can report them.
//
// # Results Format
//
// [WriteResults] writes one entry per analyzed configuration:
//
//	{
//	  "strategy": "feature-family",
//	  "formula": "0.99 * (p_Sensor * 0.9 + 1 - p_Sensor)",
//	  "results": [
//	    {"configuration": ["Root", "Sensor"], "reliability": 0.891},
//	    {"configuration": ["Sensor"], "error": "...", "code": "INVALID_CONFIGURATION"}
//	  ]
//	}
//
// # Configuration Lists
//
// [ReadConfigurations] reads one comma-separated configuration per line.
// Blank lines and lines starting with '#' are skipped.
package io
