package linker

// runtime is the module registry shim. Factories are registered in
// modules by canonical id. A module runs at most once; its cache entry is
// created before it runs so cyclic requires see the partial exports, and
// removed again if it throws.
const runtime = `var modules = {};
var cache = {};

function __jspack_require__(id) {
  var cached = cache[id];
  if (cached !== undefined) {
    return cached.exports;
  }
  if (!Object.prototype.hasOwnProperty.call(modules, id)) {
    var err = new Error("Cannot find module '" + id + "'");
    err.code = "MODULE_NOT_FOUND";
    throw err;
  }
  var module = (cache[id] = { id: id, loaded: false, exports: {} });
  try {
    modules[id].call(module.exports, module, module.exports, __jspack_require__);
  } catch (e) {
    delete cache[id];
    throw e;
  }
  module.loaded = true;
  return module.exports;
}
`
